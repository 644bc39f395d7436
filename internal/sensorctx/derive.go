package sensorctx

import (
	"time"

	"phoa/internal/external"
	"phoa/internal/types"
)

// SeasonOf returns the meteorological season for a month.
func SeasonOf(m time.Month) string {
	switch m {
	case time.March, time.April, time.May:
		return types.SeasonSpring
	case time.June, time.July, time.August:
		return types.SeasonSummer
	case time.September, time.October, time.November:
		return types.SeasonFall
	default:
		return types.SeasonWinter
	}
}

// TimeOfDayOf buckets a local hour.
func TimeOfDayOf(hour int) types.TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return types.TimeMorning
	case hour >= 12 && hour < 17:
		return types.TimeAfternoon
	case hour >= 17 && hour < 21:
		return types.TimeEvening
	default:
		return types.TimeNight
	}
}

// IsNight reports whether at falls before sunrise or after sunset. Without sun
// times it reports false.
func IsNight(at time.Time, sun *external.SunTimes) bool {
	if sun == nil || sun.Sunrise.IsZero() || sun.Sunset.IsZero() {
		return false
	}
	return at.Before(sun.Sunrise) || at.After(sun.Sunset)
}

// BucketWeatherCode maps a WMO weather interpretation code onto the closed
// weather_code set. Codes with no counterpart (e.g. 10 mist) are unmapped.
func BucketWeatherCode(wmo int) (int, bool) {
	switch {
	case wmo == 0:
		return types.WeatherClear, true
	case wmo >= 1 && wmo <= 3:
		return types.WeatherCloudy, true
	case wmo == 45 || wmo == 48:
		return types.WeatherFog, true
	case wmo >= 51 && wmo <= 67, wmo >= 80 && wmo <= 82:
		return types.WeatherRain, true
	case wmo >= 71 && wmo <= 77, wmo == 85 || wmo == 86:
		return types.WeatherSnow, true
	case wmo >= 95 && wmo <= 99:
		return types.WeatherThunderstorm, true
	default:
		return 0, false
	}
}

// osmLocationTypes maps OSM type tags onto location_type.
var osmLocationTypes = map[string]string{
	"hospital":         types.LocationHospital,
	"clinic":           types.LocationHospital,
	"doctors":          types.LocationHospital,
	"school":           types.LocationSchool,
	"kindergarten":     types.LocationSchool,
	"restaurant":       types.LocationRestaurant,
	"cafe":             types.LocationRestaurant,
	"fast_food":        types.LocationRestaurant,
	"food_court":       types.LocationRestaurant,
	"pub":              types.LocationRestaurant,
	"bar":              types.LocationRestaurant,
	"place_of_worship": types.LocationPlaceOfWorship,
	"church":           types.LocationPlaceOfWorship,
	"mosque":           types.LocationPlaceOfWorship,
	"synagogue":        types.LocationPlaceOfWorship,
	"temple":           types.LocationPlaceOfWorship,
	"cathedral":        types.LocationPlaceOfWorship,
	"university":       types.LocationUniversity,
	"college":          types.LocationUniversity,
	"park":             types.LocationPark,
	"garden":           types.LocationPark,
	"nature_reserve":   types.LocationPark,
	"playground":       types.LocationPark,
	"museum":           types.LocationMuseum,
	"gallery":          types.LocationMuseum,
	"apartments":       types.LocationApartments,
	"residential":      types.LocationApartments,
	"house":            types.LocationApartments,
	"bridge":           types.LocationBridge,
}

// LocationTypeOf maps a geocoded place onto location_type. A feature of class
// "building" with an unrecognized type counts as a generic building.
func LocationTypeOf(p *external.Place) (string, bool) {
	if p == nil {
		return "", false
	}
	if lt, ok := osmLocationTypes[p.Type]; ok {
		return lt, true
	}
	switch p.Class {
	case "building":
		return types.LocationBuilding, true
	case "bridge":
		return types.LocationBridge, true
	}
	return "", false
}

// LocationLabel picks the display label for a place.
func LocationLabel(p *external.Place) string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.DisplayName
}
