package external

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"phoa/internal/types"
)

// openMeteoAPIBase serves both the forecast and elevation endpoints.
const openMeteoAPIBase = "https://api.open-meteo.com"

// OpenMeteoConfig holds the configuration for an OpenMeteoClient.
type OpenMeteoConfig struct {
	BaseURL    string // defaults to openMeteoAPIBase
	UserAgent  string
	MaxRetries int
	Logger     *slog.Logger
}

type openMeteoCurrentResponse struct {
	Current *struct {
		Time          string   `json:"time"`
		Temperature2m *float64 `json:"temperature_2m"`
		WeatherCode   *int     `json:"weather_code"`
	} `json:"current"`
}

type openMeteoElevationResponse struct {
	Elevation []float64 `json:"elevation"`
}

// OpenMeteoClient implements WeatherProvider and ElevationProvider. Open-Meteo
// needs no API key and reports WMO weather codes directly.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewOpenMeteoClient creates an OpenMeteoClient with its own circuit breaker.
func NewOpenMeteoClient(httpClient *http.Client, cfg OpenMeteoConfig) *OpenMeteoClient {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	base := NewBaseClient(httpClient, "open-meteo", policy, userAgentOrDefault(cfg.UserAgent))
	return NewOpenMeteoClientWithBase(base, cfg)
}

// NewOpenMeteoClientWithBase creates an OpenMeteoClient around a pre-built
// BaseClient.
func NewOpenMeteoClientWithBase(base *BaseClient, cfg OpenMeteoConfig) *OpenMeteoClient {
	return &OpenMeteoClient{
		base:    base,
		baseURL: baseURLOrDefault(cfg.BaseURL, openMeteoAPIBase),
		logger:  loggerOrDefault(cfg.Logger),
	}
}

// CurrentWeather fetches the current temperature and WMO code.
func (c *OpenMeteoClient) CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("timezone", "UTC")

	var body openMeteoCurrentResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/v1/forecast?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Current == nil || body.Current.WeatherCode == nil || body.Current.Temperature2m == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed,
			"open-meteo response missing current weather fields", nil)
	}

	cw := &CurrentWeather{
		Code:        *body.Current.WeatherCode,
		Temperature: *body.Current.Temperature2m,
	}
	// Open-Meteo reports minutes without a zone offset.
	if t, err := time.Parse("2006-01-02T15:04", body.Current.Time); err == nil {
		cw.ObservedAt = t.UTC()
	}
	return cw, nil
}

// Elevation fetches the terrain elevation in meters.
func (c *OpenMeteoClient) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))

	var body openMeteoElevationResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/v1/elevation?"+q.Encode(), &body); err != nil {
		return 0, err
	}
	if len(body.Elevation) == 0 {
		return 0, types.NewAppError(types.ErrCodeUpstreamMalformed,
			"open-meteo elevation response is empty", nil)
	}
	return body.Elevation[0], nil
}
