package openmeteo

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
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	localMinute    = "2006-01-02T15:04"

	fieldTempMax       = "temperature_2m_max"
	fieldTempMin       = "temperature_2m_min"
	fieldWindSpeed     = "windspeed_10m_max"
	fieldWindDirection = "winddirection_10m_dominant"
	fieldPrecipitation = "precipitation_sum"
	fieldCloudCover    = "cloudcover_mean"
	fieldSunrise       = "sunrise"
	fieldSunset        = "sunset"

	twilight = 30 * time.Minute
)

var (
	weatherFields = []string{fieldTempMax, fieldTempMin, fieldWindSpeed, fieldWindDirection, fieldPrecipitation, fieldCloudCover}
	sunFields     = []string{fieldSunrise, fieldSunset}
)

var (
	errMissingDaily = errors.New("open-meteo response has no daily block")
	errNoDays       = errors.New("open-meteo daily block has no days")
	errMissingField = errors.New("open-meteo daily field missing")
)

// JSONGetter performs a GET and decodes the JSON body.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}

// Client reads daily weather and sun times from Open-Meteo.
type Client struct {
	baseURL string
	http    JSONGetter
}

// NewClient builds an API client.
func NewClient(baseURL string, http JSONGetter) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(u, "/"), http: http}
}

type dailyResponse struct {
	Daily *daily `json:"daily"`
}

type daily struct {
	Time          []string   `json:"time"`
	TempMax       []*float64 `json:"temperature_2m_max"`
	TempMin       []*float64 `json:"temperature_2m_min"`
	WindSpeed     []*float64 `json:"windspeed_10m_max"`
	WindDirection []*float64 `json:"winddirection_10m_dominant"`
	Precipitation []*float64 `json:"precipitation_sum"`
	CloudCover    []*float64 `json:"cloudcover_mean"`
	Sunrise       []*string  `json:"sunrise"`
	Sunset        []*string  `json:"sunset"`
}

// columnLen reports the length of a requested parallel array. Absent arrays decode as nil.
func (d *daily) columnLen(field string) int {
	switch field {
	case fieldTempMax:
		return len(d.TempMax)
	case fieldTempMin:
		return len(d.TempMin)
	case fieldWindSpeed:
		return len(d.WindSpeed)
	case fieldWindDirection:
		return len(d.WindDirection)
	case fieldPrecipitation:
		return len(d.Precipitation)
	case fieldCloudCover:
		return len(d.CloudCover)
	case fieldSunrise:
		return len(d.Sunrise)
	case fieldSunset:
		return len(d.Sunset)
	default:
		return 0
	}
}

// complete checks that time and every requested array are present and cover every day.
func (d *daily) complete(fields []string) error {
	if len(d.Time) == 0 {
		return errNoDays
	}
	for _, field := range fields {
		if n := d.columnLen(field); n < len(d.Time) {
			return fmt.Errorf("%w: %s has %d of %d values", errMissingField, field, n, len(d.Time))
		}
	}
	return nil
}

// DailyWeather implements forecast.WeatherProvider. Null entries inside a present array read as zero.
func (c *Client) DailyWeather(ctx context.Context, q forecast.Query) ([]forecast.WeatherDay, error) {
	d, err := c.fetch(ctx, q, weatherFields)
	if err != nil {
		return nil, fmt.Errorf("open-meteo weather: %w", err)
	}

	days := make([]forecast.WeatherDay, 0, q.Days)
	for i := 0; i < len(d.Time) && i < q.Days; i++ {
		cloud := int(valueAt(d.CloudCover, i))
		days = append(days, forecast.WeatherDay{
			Date:           d.Time[i],
			TemperatureMax: valueAt(d.TempMax, i),
			TemperatureMin: valueAt(d.TempMin, i),
			WindSpeed:      valueAt(d.WindSpeed, i),
			WindDirection:  int(valueAt(d.WindDirection, i)),
			Precipitation:  valueAt(d.Precipitation, i),
			CloudCover:     cloud,
			Conditions:     conditionFor(cloud),
		})
	}
	return days, nil
}

// DailySun implements forecast.SunProvider. Days without both times are omitted.
func (c *Client) DailySun(ctx context.Context, q forecast.Query) ([]forecast.SunTimes, error) {
	d, err := c.fetch(ctx, q, sunFields)
	if err != nil {
		return nil, fmt.Errorf("open-meteo sun: %w", err)
	}

	days := make([]forecast.SunTimes, 0, q.Days)
	for i := 0; i < len(d.Time) && i < q.Days; i++ {
		sunrise, okRise := localTime(d.Sunrise, i, q.Location)
		sunset, okSet := localTime(d.Sunset, i, q.Location)
		if !okRise || !okSet {
			continue
		}
		days = append(days, forecast.SunTimes{
			Date:    d.Time[i],
			Sunrise: sunrise,
			Sunset:  sunset,
			Dawn:    sunrise.Add(-twilight),
			Dusk:    sunset.Add(twilight),
		})
	}
	return days, nil
}

func (c *Client) fetch(ctx context.Context, q forecast.Query, fields []string) (*daily, error) {
	var resp dailyResponse
	if err := c.http.GetJSON(ctx, c.endpoint(q, fields), &resp); err != nil {
		return nil, err
	}
	if resp.Daily == nil {
		return nil, errMissingDaily
	}
	if err := resp.Daily.complete(fields); err != nil {
		return nil, err
	}
	return resp.Daily, nil
}

func (c *Client) endpoint(q forecast.Query, fields []string) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(q.Coord.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(q.Coord.Lng, 'f', -1, 64))
	values.Set("daily", strings.Join(fields, ","))
	values.Set("timezone", q.Timezone())
	values.Set("start_date", q.StartDate())
	values.Set("end_date", q.Start.AddDate(0, 0, q.Days-1).Format("2006-01-02"))
	return c.baseURL + "?" + values.Encode()
}

func conditionFor(cloud int) string {
	switch {
	case cloud > 80:
		return forecast.ConditionOvercast
	case cloud > 60:
		return forecast.ConditionMostlyCloudy
	case cloud > 30:
		return forecast.ConditionPartlyCloudy
	default:
		return forecast.ConditionClear
	}
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func localTime(values []*string, i int, loc *time.Location) (time.Time, bool) {
	if i >= len(values) || values[i] == nil {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(localMinute, *values[i], loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
