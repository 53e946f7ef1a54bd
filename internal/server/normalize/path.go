// Package normalize turns raw feed entries into flat vulnerability rows.
//
// Every column is read through one pure function, Extract, driven by the
// Fields table. A value that cannot be read becomes common.NotAvailable and
// never affects the other columns.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cvewatch/internal/common"
)

type step struct {
	key   string
	index int // -1 for key steps
}

// Path is a parsed JSON path such as "cve.descriptions[0].value".
type Path struct {
	raw   string
	steps []step
}

func (p Path) String() string { return p.raw }

// ParsePath parses dotted keys with optional [n] index suffixes.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("empty path")
	}
	p := Path{raw: s}
	for _, part := range strings.Split(s, ".") {
		key := part
		var idx []int
		if i := strings.IndexByte(part, '['); i >= 0 {
			key = part[:i]
			rest := part[i:]
			for rest != "" {
				if rest[0] != '[' {
					return Path{}, fmt.Errorf("path %q: unexpected %q", s, rest)
				}
				end := strings.IndexByte(rest, ']')
				if end < 0 {
					return Path{}, fmt.Errorf("path %q: unclosed index", s)
				}
				n, err := strconv.Atoi(rest[1:end])
				if err != nil || n < 0 {
					return Path{}, fmt.Errorf("path %q: bad index %q", s, rest[1:end])
				}
				idx = append(idx, n)
				rest = rest[end+1:]
			}
		}
		if key == "" {
			return Path{}, fmt.Errorf("path %q: empty key", s)
		}
		p.steps = append(p.steps, step{key: key, index: -1})
		for _, n := range idx {
			p.steps = append(p.steps, step{index: n})
		}
	}
	return p, nil
}

// MustParsePath is ParsePath for package-level tables. It panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Extract walks raw along p. It returns the leaf as text and true, or
// common.NotAvailable and false when any step fails or the leaf is null, a
// boolean, an object or an array.
//
// A leaf equal to "0" is also reported as missing. This loses a genuine zero
// score and is kept for compatibility with rows already stored that way.
func Extract(raw any, p Path) (string, bool) {
	cur := raw
	for _, s := range p.steps {
		if s.index < 0 {
			m, ok := cur.(map[string]any)
			if !ok {
				return common.NotAvailable, false
			}
			cur, ok = m[s.key]
			if !ok {
				return common.NotAvailable, false
			}
			continue
		}
		a, ok := cur.([]any)
		if !ok || s.index >= len(a) {
			return common.NotAvailable, false
		}
		cur = a[s.index]
	}

	var v string
	switch leaf := cur.(type) {
	case string:
		v = leaf
	case json.Number:
		v = leaf.String()
	case float64:
		v = strconv.FormatFloat(leaf, 'f', -1, 64)
	case int:
		v = strconv.Itoa(leaf)
	case int64:
		v = strconv.FormatInt(leaf, 10)
	default:
		return common.NotAvailable, false
	}

	if v == "0" {
		return common.NotAvailable, false
	}
	return v, true
}
