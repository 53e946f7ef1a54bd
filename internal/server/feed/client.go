// Package feed fetches vulnerability records from the NVD CVE 2.0 REST API.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/logging"
)

const cvesPath = "/rest/json/cves/2.0"

// FetchError reports a failed fetch. The response is void as a whole; no
// partial result is ever returned alongside it.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("feed %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is a successfully parsed feed response.
type Result struct {
	// Vulnerabilities holds the raw entries in upstream order. Numbers are
	// json.Number so their literal text survives.
	Vulnerabilities []any
	// Body is the raw response, kept for archiving.
	Body []byte
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient builds a client for baseURL (scheme and host, e.g.
// https://services.nvd.nist.gov). apiKey may be empty.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With("module", "feed"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// URL returns the request URL for keyword. An empty keyword means no filter.
func (c *Client) URL(keyword string) string {
	u := c.baseURL + cvesPath
	if keyword != "" {
		q := url.Values{}
		q.Set("keywordSearch", keyword)
		u += "?" + q.Encode()
	}
	return u
}

// Fetch performs a single GET and parses the vulnerabilities array.
func (c *Client) Fetch(ctx context.Context, keyword string) (*Result, error) {
	u := c.URL(keyword)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	req.Header.Set("User-Agent", "cvewatch/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	c.logger.Debug(ctx, "fetching feed", "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Op: "read", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Op: "get", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	vulns, err := parse(body)
	if err != nil {
		return nil, &FetchError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Info(ctx, "feed fetched", "records", len(vulns), "bytes", len(body))
	return &Result{Vulnerabilities: vulns, Body: body}, nil
}

func parse(body []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	raw, ok := doc["vulnerabilities"]
	if !ok {
		return nil, fmt.Errorf("response has no vulnerabilities array")
	}
	vulns, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("vulnerabilities is %T, want array", raw)
	}
	return vulns, nil
}
