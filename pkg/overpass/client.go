// Package overpass queries the Overpass API for tagged OSM nodes inside a
// named area.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Element is one OSM element of an Overpass JSON response.
type Element struct {
	ID   int64             `json:"id"`
	Type string            `json:"type"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

// response is the Overpass JSON envelope.
type response struct {
	Elements []Element `json:"elements"`
}

// Options configures the client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to an Overpass API endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://overpass-api.de/api/interpreter"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "riskmap-cli/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(1, 2),
	}
}

// BuildQuery renders the Overpass QL statement selecting nodes matching the
// tag filter inside the given area: one exact-match clause per value, so
// values are matched literally rather than as regexes. Keys and values are
// emitted in sorted order so the same filter always renders the same query.
func BuildQuery(areaID int64, filter map[string][]string) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n")
	b.WriteString("area(")
	b.WriteString(strconv.FormatInt(areaID, 10))
	b.WriteString(")->.searchArea;\n(\n")

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		vals := append([]string(nil), filter[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(`  node["`)
			b.WriteString(escapeQL(k))
			b.WriteString(`"="`)
			b.WriteString(escapeQL(v))
			b.WriteString(`"](area.searchArea);` + "\n")
		}
	}

	b.WriteString(");\nout body;\n")
	return b.String()
}

// escapeQL escapes a tag key or value for use inside a quoted QL string.
func escapeQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// QueryPoints runs the node query for the area and tag filter and returns
// the decoded elements.
func (c *Client) QueryPoints(ctx context.Context, areaID int64, filter map[string][]string) ([]Element, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit")
	}

	query := BuildQuery(areaID, filter)
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		// 429 and 504 mean the server is busy; the caller decides whether
		// to degrade.
		return nil, eris.Errorf("overpass: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read body")
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "overpass: parse response")
	}

	zap.L().Debug("overpass: query complete",
		zap.Int64("area_id", areaID),
		zap.Int("elements", len(out.Elements)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return out.Elements, nil
}
