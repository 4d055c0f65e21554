package location

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

const (
	DefaultURL     = "https://ipinfo.io/json"
	DefaultTimeout = 8 * time.Second
)

type Fix struct {
	Latitude  float64
	Longitude float64
	Address   string
	City      string
}

// Fallback is what every failed lookup resolves to.
var Fallback = Fix{
	Latitude:  0,
	Longitude: 0,
	Address:   "Unknown",
	City:      "Unknown",
}

func (f Fix) Point() orb.Point {
	return orb.Point{f.Longitude, f.Latitude}
}

func (f Fix) MapLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(f.Latitude, 'f', -1, 64),
		strconv.FormatFloat(f.Longitude, 'f', -1, 64))
}

type Provider struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func NewProvider(url string, timeout time.Duration, client *http.Client) *Provider {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{url: url, timeout: timeout, client: client}
}

// Resolve makes a single lookup attempt and never fails: any problem yields Fallback.
func (p *Provider) Resolve(ctx context.Context) Fix {
	body, err := p.fetch(ctx)
	if err != nil {
		log.Warn("Location lookup failed", "url", p.url, "err", err)
		return Fallback
	}

	fix, ok := Parse(body)
	if !ok {
		log.Warn("Location response unusable", "body", string(body))
		return Fallback
	}

	log.Debug("Location resolved", "address", fix.Address, "lat", fix.Latitude, "lon", fix.Longitude)
	return fix
}

func (p *Provider) fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Parse decodes an ipinfo-style body {loc: "lat,lon", city, region, country}.
// ok is false when the body is not JSON or loc is missing or malformed.
func Parse(body []byte) (Fix, bool) {
	if !gjson.ValidBytes(body) {
		return Fallback, false
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return Fallback, false
	}

	loc := res.Get("loc")
	if !loc.Exists() {
		return Fallback, false
	}
	parts := strings.Split(loc.String(), ",")
	if len(parts) != 2 {
		return Fallback, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Fallback, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Fallback, false
	}

	city := res.Get("city").String()
	region := res.Get("region").String()
	country := res.Get("country").String()

	return Fix{
		Latitude:  lat,
		Longitude: lon,
		Address:   fmt.Sprintf("%s, %s, %s", city, region, country),
		City:      city,
	}, true
}
