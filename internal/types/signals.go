package types

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Signal names one of the recognized sensor channels.
type Signal string

const (
	SignalLocationType Signal = "location_type"
	SignalWeatherCode  Signal = "weather_code"
	SignalTemperature  Signal = "temperature"
	SignalAltitude     Signal = "altitude"
	SignalHeartRate    Signal = "heart_rate"
	SignalNoiseLevel   Signal = "noise_level"
	SignalIsNight      Signal = "is_night"
	SignalSeason       Signal = "season"
)

// SignalOrder is the canonical ordering of the vocabulary. Reports, snapshots
// and generated messages iterate signals in this order for determinism.
var SignalOrder = []Signal{
	SignalLocationType,
	SignalWeatherCode,
	SignalTemperature,
	SignalAltitude,
	SignalHeartRate,
	SignalNoiseLevel,
	SignalIsNight,
	SignalSeason,
}

// SignalKind describes the value shape a signal accepts.
type SignalKind int

const (
	KindEnumText SignalKind = iota + 1
	KindEnumCode
	KindNumber
	KindBool
)

func (k SignalKind) String() string {
	switch k {
	case KindEnumText:
		return "enumerated string"
	case KindEnumCode:
		return "enumerated integer"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Location types recognized by the location_type signal.
const (
	LocationHospital       = "hospital"
	LocationSchool         = "school"
	LocationRestaurant     = "restaurant"
	LocationPlaceOfWorship = "place_of_worship"
	LocationUniversity     = "university"
	LocationPark           = "park"
	LocationMuseum         = "museum"
	LocationApartments     = "apartments"
	LocationBuilding       = "building"
	LocationBridge         = "bridge"
)

// Seasons recognized by the season signal.
const (
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonFall   = "Fall"
	SeasonWinter = "Winter"
)

// Weather classes recognized by the weather_code signal (WMO-derived).
const (
	WeatherClear        = 0
	WeatherCloudy       = 3
	WeatherFog          = 45
	WeatherRain         = 61
	WeatherSnow         = 71
	WeatherThunderstorm = 95
)

// SignalMetadata defines the canonical domain of a sensor signal.
type SignalMetadata struct {
	Name        Signal     `json:"name"`
	Kind        SignalKind `json:"-"`
	KindName    string     `json:"kind"`
	Unit        string     `json:"unit,omitempty"`
	Range       [2]float64 `json:"valid_range,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Codes       []int      `json:"codes,omitempty"`
	Description string     `json:"description"`
}

// Vocabulary is the authoritative, closed set of sensor signals.
// All components MUST validate against these domains.
var Vocabulary = map[Signal]SignalMetadata{
	SignalLocationType: {
		Name: SignalLocationType, Kind: KindEnumText, KindName: KindEnumText.String(),
		Labels: []string{
			LocationHospital, LocationSchool, LocationRestaurant, LocationPlaceOfWorship, LocationUniversity,
			LocationPark, LocationMuseum, LocationApartments, LocationBuilding, LocationBridge,
		},
		Description: "Kind of place at the current coordinates",
	},
	SignalWeatherCode: {
		Name: SignalWeatherCode, Kind: KindEnumCode, KindName: KindEnumCode.String(),
		Codes:       []int{WeatherClear, WeatherCloudy, WeatherFog, WeatherRain, WeatherSnow, WeatherThunderstorm},
		Description: "Current weather class (clear, cloudy, fog, rain, snow, thunderstorm)",
	},
	SignalTemperature: {
		Name: SignalTemperature, Kind: KindNumber, KindName: KindNumber.String(),
		Unit: "celsius", Range: [2]float64{-30, 50}, Description: "Air temperature",
	},
	SignalAltitude: {
		Name: SignalAltitude, Kind: KindNumber, KindName: KindNumber.String(),
		Unit: "m", Range: [2]float64{0, 3000}, Description: "Elevation above sea level",
	},
	SignalHeartRate: {
		Name: SignalHeartRate, Kind: KindNumber, KindName: KindNumber.String(),
		Unit: "BPM", Range: [2]float64{40, 200}, Description: "Wearer heart rate",
	},
	SignalNoiseLevel: {
		Name: SignalNoiseLevel, Kind: KindNumber, KindName: KindNumber.String(),
		Unit: "dB", Range: [2]float64{0, 120}, Description: "Ambient noise level",
	},
	SignalIsNight: {
		Name: SignalIsNight, Kind: KindBool, KindName: KindBool.String(),
		Description: "Whether the sun is down at the current coordinates",
	},
	SignalSeason: {
		Name: SignalSeason, Kind: KindEnumText, KindName: KindEnumText.String(),
		Labels:      []string{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter},
		Description: "Meteorological season derived from the month",
	},
}

// LookupSignal returns the metadata for a signal name.
func LookupSignal(name string) (SignalMetadata, bool) {
	meta, ok := Vocabulary[Signal(name)]
	return meta, ok
}

// Width returns the extent of a numeric signal's domain, or 0 for
// non-numeric signals.
func (m SignalMetadata) Width() float64 {
	if m.Kind != KindNumber {
		return 0
	}
	return m.Range[1] - m.Range[0]
}

// CanonicalLabel resolves a label case-insensitively against the closed set and
// returns the canonical spelling ("spring" -> "Spring").
func (m SignalMetadata) CanonicalLabel(label string) (string, bool) {
	for _, l := range m.Labels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return l, true
		}
	}
	return "", false
}

// Admits checks that a non-null value has the signal's kind and lies within
// its domain. Null values are always admitted (the signal is irrelevant).
func (m SignalMetadata) Admits(v Value) error {
	if v.IsNull() {
		return nil
	}
	switch m.Kind {
	case KindEnumText:
		s, ok := v.AsText()
		if !ok {
			return fmt.Errorf("%s expects %s, got %s", m.Name, m.Kind, v.Kind())
		}
		if !slices.Contains(m.Labels, s) {
			return fmt.Errorf("%s value %q is not one of %s", m.Name, s, strings.Join(m.Labels, ", "))
		}
	case KindEnumCode:
		n, ok := v.AsNumber()
		if !ok {
			return fmt.Errorf("%s expects %s, got %s", m.Name, m.Kind, v.Kind())
		}
		if n != math.Trunc(n) || !slices.Contains(m.Codes, int(n)) {
			return fmt.Errorf("%s value %v is not one of %v", m.Name, n, m.Codes)
		}
	case KindNumber:
		n, ok := v.AsNumber()
		if !ok {
			return fmt.Errorf("%s expects %s, got %s", m.Name, m.Kind, v.Kind())
		}
		if n < m.Range[0] || n > m.Range[1] {
			return fmt.Errorf("%s value %.2f outside valid range [%.0f, %.0f] %s",
				m.Name, n, m.Range[0], m.Range[1], m.Unit)
		}
	case KindBool:
		if _, ok := v.AsBool(); !ok {
			return fmt.Errorf("%s expects %s, got %s", m.Name, m.Kind, v.Kind())
		}
	}
	return nil
}

// AdmitsKind checks only the value's shape, not its domain. Live sensor
// readings may legitimately fall outside the rule domain (a 205 BPM spike).
func (m SignalMetadata) AdmitsKind(v Value) bool {
	if v.IsNull() {
		return true
	}
	switch m.Kind {
	case KindEnumText:
		_, ok := v.AsText()
		return ok
	case KindEnumCode, KindNumber:
		_, ok := v.AsNumber()
		return ok
	case KindBool:
		_, ok := v.AsBool()
		return ok
	}
	return false
}
