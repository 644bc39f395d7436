package external

import (
	"context"
	"log/slog"
	"time"
)

// Stub providers let the service run without network access. They log each
// call and return fixed, plausible data.

// StubGeocoder reports every coordinate as a park.
type StubGeocoder struct {
	logger *slog.Logger
}

// NewStubGeocoder creates a StubGeocoder.
func NewStubGeocoder(logger *slog.Logger) *StubGeocoder {
	return &StubGeocoder{logger: logger}
}

func (s *StubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	s.logger.DebugContext(ctx, "stub: ReverseGeocode called", "lat", lat, "lon", lon)
	return &Place{Class: "leisure", Type: "park", Name: "Stub Park", DisplayName: "Stub Park"}, nil
}

// StubWeather reports clear skies at 20°C and sea-level elevation.
type StubWeather struct {
	logger *slog.Logger
}

// NewStubWeather creates a StubWeather.
func NewStubWeather(logger *slog.Logger) *StubWeather {
	return &StubWeather{logger: logger}
}

func (s *StubWeather) CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	s.logger.DebugContext(ctx, "stub: CurrentWeather called", "lat", lat, "lon", lon)
	return &CurrentWeather{Code: 0, Temperature: 20, ObservedAt: time.Now().UTC()}, nil
}

func (s *StubWeather) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	s.logger.DebugContext(ctx, "stub: Elevation called", "lat", lat, "lon", lon)
	return 0, nil
}

// StubSunTimes reports sunrise at 06:00 and sunset at 18:00 UTC on the
// requested date.
type StubSunTimes struct {
	logger *slog.Logger
}

// NewStubSunTimes creates a StubSunTimes.
func NewStubSunTimes(logger *slog.Logger) *StubSunTimes {
	return &StubSunTimes{logger: logger}
}

func (s *StubSunTimes) SunTimes(ctx context.Context, lat, lon float64, date time.Time) (*SunTimes, error) {
	s.logger.DebugContext(ctx, "stub: SunTimes called", "lat", lat, "lon", lon)
	y, m, d := date.Date()
	return &SunTimes{
		Sunrise: time.Date(y, m, d, 6, 0, 0, 0, time.UTC),
		Sunset:  time.Date(y, m, d, 18, 0, 0, 0, time.UTC),
	}, nil
}
