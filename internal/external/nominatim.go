package external

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"phoa/internal/types"
)

// nominatimAPIBase is the public OpenStreetMap Nominatim instance.
const nominatimAPIBase = "https://nominatim.openstreetmap.org"

// DefaultUserAgent identifies the service to lookup providers. Nominatim's
// usage policy rejects anonymous clients.
const DefaultUserAgent = "PhoA-PhobiaApp/1.0"

// NominatimConfig holds the configuration for a NominatimClient.
type NominatimConfig struct {
	BaseURL    string // defaults to nominatimAPIBase
	UserAgent  string
	MaxRetries int
	Logger     *slog.Logger
}

// nominatimResponse is the subset of the /reverse JSON we read. Errors are
// reported with 200 and an "error" field.
type nominatimResponse struct {
	Class       string `json:"class"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NominatimClient implements Geocoder against the Nominatim /reverse API.
type NominatimClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewNominatimClient creates a NominatimClient with its own circuit breaker.
func NewNominatimClient(httpClient *http.Client, cfg NominatimConfig) *NominatimClient {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	base := NewBaseClient(httpClient, "nominatim", policy, userAgentOrDefault(cfg.UserAgent))
	return NewNominatimClientWithBase(base, cfg)
}

// NewNominatimClientWithBase creates a NominatimClient around a pre-built
// BaseClient.
func NewNominatimClientWithBase(base *BaseClient, cfg NominatimConfig) *NominatimClient {
	return &NominatimClient{
		base:    base,
		baseURL: baseURLOrDefault(cfg.BaseURL, nominatimAPIBase),
		logger:  loggerOrDefault(cfg.Logger),
	}
}

// ReverseGeocode looks up the feature at lat/lon.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("format", "json")
	q.Set("zoom", "18")

	var body nominatimResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/reverse?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed,
			fmt.Sprintf("nominatim: %s", body.Error), nil)
	}

	class := body.Class
	if class == "" {
		class = body.Category
	}
	place := &Place{
		Class:       strings.ToLower(class),
		Type:        strings.ToLower(body.Type),
		Name:        body.Name,
		DisplayName: body.DisplayName,
	}
	c.logger.DebugContext(ctx, "reverse geocoded",
		"class", place.Class,
		"type", place.Type,
	)
	return place, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func baseURLOrDefault(u, def string) string {
	if u == "" {
		u = def
	}
	return strings.TrimSuffix(u, "/")
}

func userAgentOrDefault(ua string) string {
	if ua == "" {
		return DefaultUserAgent
	}
	return ua
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
