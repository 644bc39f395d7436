package external

import (
	"context"
	"time"
)

// Place is the reverse-geocoding result for a coordinate pair. Class and Type
// are the provider's raw OSM tags; mapping them onto the location vocabulary
// is the caller's concern.
type Place struct {
	Class       string
	Type        string
	Name        string
	DisplayName string
}

// CurrentWeather is the observed weather at a coordinate pair. Code is the
// raw WMO weather interpretation code.
type CurrentWeather struct {
	Code        int
	Temperature float64
	ObservedAt  time.Time
}

// SunTimes holds the sunrise and sunset instants for one day, in UTC.
type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Geocoder resolves coordinates to a place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error)
}

// WeatherProvider reports current conditions.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error)
}

// ElevationProvider reports terrain elevation in meters.
type ElevationProvider interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// SunTimesProvider reports sunrise and sunset for the given calendar date.
type SunTimesProvider interface {
	SunTimes(ctx context.Context, lat, lon float64, date time.Time) (*SunTimes, error)
}
