package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{"resultsPerPage":2,"vulnerabilities":[
 {"cve":{"id":"CVE-2024-0001","metrics":{"cvssMetricV31":[{"cvssData":{"baseScore":10.0}}]}}},
 {"cve":{"id":"CVE-2024-0002"}}
]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "", 5*time.Second, logging.Discard())
}

func TestFetch_Success(t *testing.T) {
	var gotPath, gotKeyword, gotUA, gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKeyword = r.URL.Query().Get("keywordSearch")
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(sampleBody))
	})

	res, err := c.Fetch(context.Background(), "microsoft word")
	require.NoError(t, err)

	assert.Equal(t, "/rest/json/cves/2.0", gotPath)
	assert.Equal(t, "microsoft word", gotKeyword)
	assert.Equal(t, "cvewatch/1.0", gotUA)
	assert.Equal(t, "application/json", gotAccept)

	require.Len(t, res.Vulnerabilities, 2)
	assert.Equal(t, sampleBody, string(res.Body))

	first := res.Vulnerabilities[0].(map[string]any)["cve"].(map[string]any)
	assert.Equal(t, "CVE-2024-0001", first["id"])
	score := first["metrics"].(map[string]any)["cvssMetricV31"].([]any)[0].(map[string]any)["cvssData"].(map[string]any)["baseScore"]
	assert.Equal(t, json.Number("10.0"), score)
}

func TestFetch_EmptyKeywordHasNoFilter(t *testing.T) {
	var rawQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"vulnerabilities":[]}`))
	})

	res, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, rawQuery)
	assert.Empty(t, res.Vulnerabilities)
}

func TestFetch_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apiKey") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"vulnerabilities":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k", time.Second, logging.Discard())
	_, err := c.Fetch(context.Background(), "x")
	require.NoError(t, err)
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantOp     string
		wantStatus int
	}{
		{"non-2xx", http.StatusServiceUnavailable, `{"vulnerabilities":[]}`, "get", http.StatusServiceUnavailable},
		{"not found", http.StatusNotFound, ``, "get", http.StatusNotFound},
		{"malformed json", http.StatusOK, `{"vulnerabilities":[`, "decode", http.StatusOK},
		{"missing array", http.StatusOK, `{"totalResults":0}`, "decode", http.StatusOK},
		{"array of wrong type", http.StatusOK, `{"vulnerabilities":{}}`, "decode", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			res, err := c.Fetch(context.Background(), "x")
			assert.Nil(t, res)

			var fe *FetchError
			require.True(t, errors.As(err, &fe), "want *FetchError, got %T", err)
			assert.Equal(t, tt.wantOp, fe.Op)
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
		})
	}
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second, logging.Discard())
	_, err := c.Fetch(context.Background(), "x")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "get", fe.Op)
	assert.Zero(t, fe.StatusCode)
}

func TestFetch_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(done)

	c := NewClient(srv.URL, "", 50*time.Millisecond, logging.Discard())
	_, err := c.Fetch(context.Background(), "x")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
}

func TestURL(t *testing.T) {
	c := NewClient("https://services.nvd.nist.gov/", "", time.Second, logging.Discard())
	assert.Equal(t, "https://services.nvd.nist.gov/rest/json/cves/2.0", c.URL(""))
	assert.Equal(t, "https://services.nvd.nist.gov/rest/json/cves/2.0?keywordSearch=microsoft+word", c.URL("microsoft word"))
}

func TestFetchError_Message(t *testing.T) {
	e := &FetchError{Op: "get", StatusCode: 500, Err: errors.New("boom")}
	assert.Equal(t, "feed get: status 500: boom", e.Error())
	e = &FetchError{Op: "get", Err: errors.New("boom")}
	assert.Equal(t, "feed get: boom", e.Error())
	assert.EqualError(t, errors.Unwrap(e), "boom")
}
