package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishcast/internal/domain/forecast"
	"github.com/yanqian/fishcast/internal/domain/location"
)

type recordingGetter struct {
	body string
	err  error
	urls []string
}

func (g *recordingGetter) GetJSON(_ context.Context, rawURL string, dst any) error {
	g.urls = append(g.urls, rawURL)
	if g.err != nil {
		return g.err
	}
	return json.Unmarshal([]byte(g.body), dst)
}

func testQuery(t *testing.T, days int) forecast.Query {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Melbourne")
	require.NoError(t, err)
	return forecast.Query{
		Coord:    location.Coordinate{Lat: -37.8636, Lng: 144.9631},
		Start:    time.Date(2025, 1, 10, 0, 0, 0, 0, loc),
		Days:     days,
		Location: loc,
	}
}

func TestDailyWeatherNormalizesDays(t *testing.T) {
	getter := &recordingGetter{body: `{
		"daily": {
			"time": ["2025-01-10", "2025-01-11", "2025-01-12"],
			"temperature_2m_max": [27.1, 31.4, 22.0],
			"temperature_2m_min": [15.2, 18.9, 14.1],
			"windspeed_10m_max": [12.5, 28.3, null],
			"winddirection_10m_dominant": [190, 320, 200],
			"precipitation_sum": [0, 1.2, 9.8],
			"cloudcover_mean": [12, 65, 90]
		}
	}`}
	client := NewClient("", getter)

	days, err := client.DailyWeather(context.Background(), testQuery(t, 2))
	require.NoError(t, err)
	require.Len(t, days, 2)

	require.Equal(t, forecast.WeatherDay{
		Date:           "2025-01-10",
		TemperatureMax: 27.1,
		TemperatureMin: 15.2,
		WindSpeed:      12.5,
		WindDirection:  190,
		Precipitation:  0,
		CloudCover:     12,
		Conditions:     forecast.ConditionClear,
	}, days[0])
	require.Equal(t, forecast.ConditionMostlyCloudy, days[1].Conditions)

	require.Len(t, getter.urls, 1)
	u, err := url.Parse(getter.urls[0])
	require.NoError(t, err)
	require.Equal(t, "api.open-meteo.com", u.Host)
	params := u.Query()
	require.Equal(t, "-37.8636", params.Get("latitude"))
	require.Equal(t, "144.9631", params.Get("longitude"))
	require.Equal(t, "Australia/Melbourne", params.Get("timezone"))
	require.Equal(t, "2025-01-10", params.Get("start_date"))
	require.Equal(t, "2025-01-11", params.Get("end_date"))
	require.Equal(t, "temperature_2m_max,temperature_2m_min,windspeed_10m_max,winddirection_10m_dominant,precipitation_sum,cloudcover_mean", params.Get("daily"))
}

func TestDailySunDerivesDawnAndDusk(t *testing.T) {
	getter := &recordingGetter{body: `{
		"daily": {
			"time": ["2025-01-10", "2025-01-11"],
			"sunrise": ["2025-01-10T06:04", null],
			"sunset": ["2025-01-10T20:44", "2025-01-11T20:44"]
		}
	}`}
	q := testQuery(t, 2)

	days, err := NewClient("https://example.test/v1/forecast/", getter).DailySun(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, days, 1)

	sun := days[0]
	require.Equal(t, time.Date(2025, 1, 10, 6, 4, 0, 0, q.Location), sun.Sunrise)
	require.Equal(t, time.Date(2025, 1, 10, 5, 34, 0, 0, q.Location), sun.Dawn)
	require.Equal(t, time.Date(2025, 1, 10, 21, 14, 0, 0, q.Location), sun.Dusk)
	require.Contains(t, getter.urls[0], "https://example.test/v1/forecast?")
}

func TestClientErrors(t *testing.T) {
	q := testQuery(t, 1)

	_, err := NewClient("", &recordingGetter{body: `{"reason":"bad"}`}).DailyWeather(context.Background(), q)
	require.ErrorIs(t, err, errMissingDaily)

	boom := errors.New("connection reset")
	_, err = NewClient("", &recordingGetter{err: boom}).DailySun(context.Background(), q)
	require.ErrorIs(t, err, boom)
}

type incompleteCase struct {
	name string
	body string
	want error
}

func TestDailyWeatherRejectsIncompleteDaily(t *testing.T) {
	full := map[string]string{
		"temperature_2m_max":         `[27.1, 31.4]`,
		"temperature_2m_min":         `[15.2, 18.9]`,
		"windspeed_10m_max":          `[12.5, 28.3]`,
		"winddirection_10m_dominant": `[190, 320]`,
		"precipitation_sum":          `[0, 1.2]`,
		"cloudcover_mean":            `[12, 65]`,
	}

	tests := []incompleteCase{
		{name: "empty daily", body: `{"daily":{}}`, want: errNoDays},
		{name: "empty time", body: `{"daily":{"time":[]}}`, want: errNoDays},
		{name: "time only", body: `{"daily":{"time":["2025-01-10"]}}`, want: errMissingField},
	}
	for field := range full {
		tests = append(tests,
			incompleteCase{name: "missing " + field, body: dailyBody(full, field, ""), want: errMissingField},
			incompleteCase{name: "short " + field, body: dailyBody(full, field, `[1]`), want: errMissingField},
		)
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			days, err := NewClient("", &recordingGetter{body: tt.body}).DailyWeather(context.Background(), testQuery(t, 2))
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, days)
		})
	}
}

func TestDailyWeatherCompleteBodyDecodes(t *testing.T) {
	full := map[string]string{
		"temperature_2m_max":         `[27.1, 31.4]`,
		"temperature_2m_min":         `[15.2, 18.9]`,
		"windspeed_10m_max":          `[12.5, null]`,
		"winddirection_10m_dominant": `[190, 320]`,
		"precipitation_sum":          `[0, 1.2]`,
		"cloudcover_mean":            `[12, 65]`,
	}
	days, err := NewClient("", &recordingGetter{body: dailyBody(full, "", "")}).DailyWeather(context.Background(), testQuery(t, 2))
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Zero(t, days[1].WindSpeed)
}

func TestDailySunRejectsIncompleteDaily(t *testing.T) {
	tests := []incompleteCase{
		{name: "empty daily", body: `{"daily":{}}`, want: errNoDays},
		{name: "time only", body: `{"daily":{"time":["2025-01-10"]}}`, want: errMissingField},
		{name: "missing sunrise", body: `{"daily":{"time":["2025-01-10"],"sunset":["2025-01-10T20:44"]}}`, want: errMissingField},
		{name: "missing sunset", body: `{"daily":{"time":["2025-01-10"],"sunrise":["2025-01-10T06:04"]}}`, want: errMissingField},
		{name: "short sunset", body: `{"daily":{"time":["2025-01-10","2025-01-11"],"sunrise":["2025-01-10T06:04","2025-01-11T06:05"],"sunset":["2025-01-10T20:44"]}}`, want: errMissingField},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			days, err := NewClient("", &recordingGetter{body: tt.body}).DailySun(context.Background(), testQuery(t, 2))
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, days)
		})
	}
}

// dailyBody renders a two-day daily block from fields, dropping or replacing one of them.
func dailyBody(fields map[string]string, field, replacement string) string {
	parts := []string{`"time":["2025-01-10","2025-01-11"]`}
	for name, values := range fields {
		if name == field {
			if replacement == "" {
				continue
			}
			values = replacement
		}
		parts = append(parts, fmt.Sprintf("%q:%s", name, values))
	}
	return `{"daily":{` + strings.Join(parts, ",") + `}}`
}

func TestConditionFor(t *testing.T) {
	require.Equal(t, forecast.ConditionClear, conditionFor(30))
	require.Equal(t, forecast.ConditionPartlyCloudy, conditionFor(31))
	require.Equal(t, forecast.ConditionMostlyCloudy, conditionFor(80))
	require.Equal(t, forecast.ConditionOvercast, conditionFor(81))
}
