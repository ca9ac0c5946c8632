// Package nominatim resolves free-form place names to OSM areas via the
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Overpass area ids are derived from OSM ids by these offsets.
const (
	wayAreaOffset      = 2_400_000_000
	relationAreaOffset = 3_600_000_000
)

// ErrPlaceNotFound is returned when the place name resolves to nothing.
var ErrPlaceNotFound = eris.New("nominatim: place not found")

// Place is a resolved OSM place suitable for an Overpass area query.
type Place struct {
	OSMID       int64
	OSMType     string // "relation" or "way"
	DisplayName string
	Lat         float64
	Lon         float64
}

// AreaID returns the Overpass area id for the place.
func (p Place) AreaID() int64 {
	if p.OSMType == "way" {
		return wayAreaOffset + p.OSMID
	}
	return relationAreaOffset + p.OSMID
}

// Options configures the client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to a Nominatim instance. The public instance allows at most
// one request per second, which the built-in limiter enforces.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "riskmap-cli/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(1, 1),
	}
}

// searchResult is one entry of the Nominatim search response.
type searchResult struct {
	OSMID       int64  `json:"osm_id"`
	OSMType     string `json:"osm_type"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Resolve looks up the place name and returns the best area match.
// Node results cannot host an Overpass area query and are skipped.
func (c *Client) Resolve(ctx context.Context, placeName string) (*Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"q":      {placeName},
		"format": {"jsonv2"},
		"limit":  {"5"},
	}
	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse response")
	}

	for _, r := range results {
		if r.OSMType != "relation" && r.OSMType != "way" {
			continue
		}
		lat, _ := strconv.ParseFloat(r.Lat, 64)
		lon, _ := strconv.ParseFloat(r.Lon, 64)
		zap.L().Debug("nominatim: resolved place",
			zap.String("query", placeName),
			zap.String("display_name", r.DisplayName),
			zap.Int64("osm_id", r.OSMID),
		)
		return &Place{
			OSMID:       r.OSMID,
			OSMType:     r.OSMType,
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
		}, nil
	}
	return nil, ErrPlaceNotFound
}
