package external

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"phoa/internal/types"
)

const sunriseAPIBase = "https://api.sunrise-sunset.org"

// SunriseConfig holds the configuration for a SunriseClient.
type SunriseConfig struct {
	BaseURL    string // defaults to sunriseAPIBase
	UserAgent  string
	MaxRetries int
	Logger     *slog.Logger
}

type sunriseResponse struct {
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
	Status string `json:"status"`
}

// SunriseClient implements SunTimesProvider against sunrise-sunset.org.
type SunriseClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewSunriseClient creates a SunriseClient with its own circuit breaker.
func NewSunriseClient(httpClient *http.Client, cfg SunriseConfig) *SunriseClient {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	base := NewBaseClient(httpClient, "sunrise-sunset", policy, userAgentOrDefault(cfg.UserAgent))
	return NewSunriseClientWithBase(base, cfg)
}

// NewSunriseClientWithBase creates a SunriseClient around a pre-built
// BaseClient.
func NewSunriseClientWithBase(base *BaseClient, cfg SunriseConfig) *SunriseClient {
	return &SunriseClient{
		base:    base,
		baseURL: baseURLOrDefault(cfg.BaseURL, sunriseAPIBase),
		logger:  loggerOrDefault(cfg.Logger),
	}
}

// SunTimes fetches sunrise and sunset for date's calendar day. formatted=0
// makes the API return ISO 8601 instants.
func (c *SunriseClient) SunTimes(ctx context.Context, lat, lon float64, date time.Time) (*SunTimes, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lng", formatCoord(lon))
	q.Set("formatted", "0")
	q.Set("date", date.Format(time.DateOnly))

	var body sunriseResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/json?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Status != "OK" {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed,
			fmt.Sprintf("sunrise-sunset status %q", body.Status), nil)
	}

	sunrise, err := time.Parse(time.RFC3339, body.Results.Sunrise)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed, "unparsable sunrise", err)
	}
	sunset, err := time.Parse(time.RFC3339, body.Results.Sunset)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed, "unparsable sunset", err)
	}

	return &SunTimes{Sunrise: sunrise.UTC(), Sunset: sunset.UTC()}, nil
}
