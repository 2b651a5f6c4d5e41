package worldtides

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/fishcast/internal/domain/forecast"
)

const (
	defaultBaseURL = "https://www.worldtides.info/api"
	dateLayout     = "2006-01-02T15:04-0700"
)

var errNoHeights = errors.New("worldtides response has no heights")

// JSONGetter performs a GET and decodes the JSON body.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}

// Client reads tide height samples from WorldTides.
type Client struct {
	baseURL string
	apiKey  string
	http    JSONGetter
}

// NewClient builds an API client. Callers should not construct one without a key.
func NewClient(baseURL, apiKey string, http JSONGetter) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(u, "/"), apiKey: apiKey, http: http}
}

type apiResponse struct {
	Status  int          `json:"status"`
	Error   string       `json:"error"`
	Heights []heightItem `json:"heights"`
}

type heightItem struct {
	Dt     int64    `json:"dt"`
	Date   string   `json:"date"`
	Height *float64 `json:"height"`
}

// Heights implements forecast.TideProvider.
func (c *Client) Heights(ctx context.Context, q forecast.Query) ([]forecast.TideSample, error) {
	var resp apiResponse
	if err := c.http.GetJSON(ctx, c.endpoint(q), &resp); err != nil {
		return nil, fmt.Errorf("worldtides heights: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("worldtides api error: %s", resp.Error)
	}
	if len(resp.Heights) == 0 {
		return nil, errNoHeights
	}

	samples := make([]forecast.TideSample, 0, len(resp.Heights))
	for _, h := range resp.Heights {
		if h.Height == nil {
			continue
		}
		ts, ok := sampleTime(h)
		if !ok {
			continue
		}
		samples = append(samples, forecast.TideSample{Time: ts, Height: *h.Height})
	}
	return samples, nil
}

func (c *Client) endpoint(q forecast.Query) string {
	values := url.Values{}
	values.Set("heights", "")
	values.Set("lat", strconv.FormatFloat(q.Coord.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(q.Coord.Lng, 'f', -1, 64))
	values.Set("start", strconv.FormatInt(q.Start.Unix(), 10))
	values.Set("days", strconv.Itoa(q.Days))
	values.Set("key", c.apiKey)
	return c.baseURL + "?" + values.Encode()
}

func sampleTime(h heightItem) (time.Time, bool) {
	if h.Dt > 0 {
		return time.Unix(h.Dt, 0).UTC(), true
	}
	ts, err := time.Parse(dateLayout, h.Date)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
