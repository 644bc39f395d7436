package external

import (
	"log/slog"
	"net/http"

	"phoa/internal/config"
)

// ClientRegistry holds the lookup providers consulted during context
// normalization. It is the single place where provider clients are built
// from configuration.
type ClientRegistry struct {
	Geocoder  Geocoder
	Weather   WeatherProvider
	Elevation ElevationProvider
	SunTimes  SunTimesProvider
}

// NewClientRegistry builds the lookup providers. With cfg.Offline set, or
// when running locally without network access, every provider is replaced
// by a stub that returns fixed data.
//
// The HTTP client carries no timeout of its own: each lookup is bounded by
// the normalizer's per-lookup deadline, retries included.
func NewClientRegistry(cfg config.LookupConfig, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Offline {
		logger.Info("initializing lookup clients in STUB mode")
		return newStubRegistry(logger)
	}

	logger.Info("initializing lookup clients",
		"nominatim_url", cfg.NominatimURL,
		"open_meteo_url", cfg.WeatherURL,
		"sunrise_url", cfg.SunriseURL,
		"max_retries", cfg.MaxRetries,
	)

	httpClient := &http.Client{}
	weather := NewOpenMeteoClient(httpClient, OpenMeteoConfig{
		BaseURL:    cfg.WeatherURL,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger.With("client", "open-meteo"),
	})
	return &ClientRegistry{
		Geocoder: NewNominatimClient(httpClient, NominatimConfig{
			BaseURL:    cfg.NominatimURL,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger.With("client", "nominatim"),
		}),
		Weather:   weather,
		Elevation: weather,
		SunTimes: NewSunriseClient(httpClient, SunriseConfig{
			BaseURL:    cfg.SunriseURL,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger.With("client", "sunrise"),
		}),
	}
}

func newStubRegistry(logger *slog.Logger) *ClientRegistry {
	stubLogger := logger.With("mode", "stub")
	return &ClientRegistry{
		Geocoder:  NewStubGeocoder(stubLogger),
		Weather:   NewStubWeather(stubLogger),
		Elevation: NewStubWeather(stubLogger),
		SunTimes:  NewStubSunTimes(stubLogger),
	}
}
