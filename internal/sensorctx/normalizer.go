// Package sensorctx builds the canonical context snapshot an evaluation runs
// against. It derives clock-based signals locally and fills the location,
// weather, elevation and sun-time signals from concurrent lookups that degrade
// to absent on failure.
package sensorctx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"phoa/internal/external"
	"phoa/internal/types"
)

// Lookup names, used in logs, metrics and Snapshot.Degraded.
const (
	LookupGeocode   = "reverse_geocode"
	LookupWeather   = "weather"
	LookupElevation = "elevation"
	LookupSunTimes  = "sun_times"
)

// DefaultLookupTimeout bounds a single lookup, retries included.
const DefaultLookupTimeout = 5 * time.Second

// Lookups holds the providers consulted when coordinates are present. A nil
// provider leaves its signals absent.
type Lookups struct {
	Geocoder  external.Geocoder
	Weather   external.WeatherProvider
	Elevation external.ElevationProvider
	SunTimes  external.SunTimesProvider
}

// FailureObserver is notified of each failed lookup.
type FailureObserver interface {
	RecordLookupFailure(ctx context.Context, lookup string)
}

// Normalizer turns raw request context into a Snapshot. It is safe for
// concurrent use.
type Normalizer struct {
	lookups  Lookups
	timeout  time.Duration
	logger   *slog.Logger
	observer FailureObserver
	now      func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithFailureObserver reports lookup failures to o.
func WithFailureObserver(o FailureObserver) Option {
	return func(n *Normalizer) { n.observer = o }
}

// WithClock overrides the default timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer creates a Normalizer. A non-positive timeout selects
// DefaultLookupTimeout.
func NewNormalizer(lookups Lookups, timeout time.Duration, logger *slog.Logger, opts ...Option) *Normalizer {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{
		lookups: lookups,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// lookupResults collects what the concurrent lookups found. Each goroutine
// writes only its own fields.
type lookupResults struct {
	place     *external.Place
	weather   *external.CurrentWeather
	elevation *float64
	sun       *external.SunTimes

	mu       sync.Mutex
	degraded []string
}

func (r *lookupResults) fail(name string) {
	r.mu.Lock()
	r.degraded = append(r.degraded, name)
	r.mu.Unlock()
}

// Normalize validates the raw context and assembles a snapshot. Only malformed
// input is an error; missing or failed context leaves signals absent.
func (n *Normalizer) Normalize(ctx context.Context, raw types.RawContext, messages []types.GroupMessage) (*types.Snapshot, error) {
	loc, overrides, err := n.check(raw)
	if err != nil {
		return nil, err
	}

	at := n.now()
	if raw.Timestamp != nil {
		at = *raw.Timestamp
	}
	local := at.In(loc)

	snap := types.NewSnapshot(at.UTC())
	snap.TimeOfDay = TimeOfDayOf(local.Hour())
	snap.Set(types.SignalSeason, types.Text(SeasonOf(local.Month())))
	snap.Messages = messageTexts(messages)

	var sun *external.SunTimes
	if raw.HasCoordinates() {
		res := n.runLookups(ctx, *raw.Latitude, *raw.Longitude, local)
		n.apply(snap, res)
		sun = res.sun
		snap.Degraded = res.degraded
	}
	snap.Set(types.SignalIsNight, types.Bool(IsNight(at, sun)))

	for sig, v := range overrides {
		snap.Set(sig, v)
	}
	return snap, nil
}

// check rejects malformed shapes and canonicalizes overrides.
func (n *Normalizer) check(raw types.RawContext) (*time.Location, map[types.Signal]types.Value, error) {
	if (raw.Latitude == nil) != (raw.Longitude == nil) {
		return nil, nil, types.NewAppError(types.ErrCodeValidationMissingField,
			"latitude and longitude must be provided together", nil)
	}
	if raw.HasCoordinates() {
		if err := types.ValidateCoordinates(*raw.Latitude, *raw.Longitude); err != nil {
			return nil, nil, err
		}
	}

	loc := time.UTC
	if raw.Timezone != "" {
		l, err := time.LoadLocation(raw.Timezone)
		if err != nil {
			return nil, nil, types.NewAppError(types.ErrCodeValidationInvalidTimezone,
				fmt.Sprintf("unknown timezone %q", raw.Timezone), err)
		}
		loc = l
	}

	overrides := make(map[types.Signal]types.Value, len(raw.Overrides))
	for sig, v := range raw.Overrides {
		if v.IsNull() {
			continue
		}
		cv, err := canonicalOverride(sig, v)
		if err != nil {
			return nil, nil, err
		}
		overrides[sig] = cv
	}
	return loc, overrides, nil
}

// canonicalOverride checks an override's kind and, for enumerated signals,
// membership. Numeric readings outside the rule domain are accepted as live
// measurements.
func canonicalOverride(sig types.Signal, v types.Value) (types.Value, error) {
	meta, ok := types.Vocabulary[sig]
	if !ok {
		return v, types.NewAppError(types.ErrCodeValidationInvalidSignal,
			fmt.Sprintf("unknown signal %q", sig), nil)
	}
	if !meta.AdmitsKind(v) {
		return v, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidSignal,
			fmt.Sprintf("%s expects %s, got %s", sig, meta.KindName, v.Kind()), nil,
			map[string]any{"signal": string(sig)})
	}
	switch meta.Kind {
	case types.KindEnumText:
		s, _ := v.AsText()
		label, ok := meta.CanonicalLabel(s)
		if !ok {
			return v, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidSignal,
				fmt.Sprintf("%s value %q is not one of %s", sig, s, strings.Join(meta.Labels, ", ")), nil,
				map[string]any{"signal": string(sig)})
		}
		return types.Text(label), nil
	case types.KindEnumCode:
		if err := meta.Admits(v); err != nil {
			return v, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidSignal,
				err.Error(), nil, map[string]any{"signal": string(sig)})
		}
	}
	return v, nil
}

// runLookups fans out to the configured providers. Each lookup gets its own
// deadline; none of them fails the group.
func (n *Normalizer) runLookups(ctx context.Context, lat, lon float64, local time.Time) *lookupResults {
	res := &lookupResults{}
	g, gctx := errgroup.WithContext(ctx)

	if n.lookups.Geocoder != nil {
		g.Go(func() error {
			place, err := withTimeout(gctx, n.timeout, func(ctx context.Context) (*external.Place, error) {
				return n.lookups.Geocoder.ReverseGeocode(ctx, lat, lon)
			})
			if err != nil {
				n.degrade(ctx, res, LookupGeocode, err)
				return nil
			}
			res.place = place
			return nil
		})
	}
	if n.lookups.Weather != nil {
		g.Go(func() error {
			cw, err := withTimeout(gctx, n.timeout, func(ctx context.Context) (*external.CurrentWeather, error) {
				return n.lookups.Weather.CurrentWeather(ctx, lat, lon)
			})
			if err != nil {
				n.degrade(ctx, res, LookupWeather, err)
				return nil
			}
			res.weather = cw
			return nil
		})
	}
	if n.lookups.Elevation != nil {
		g.Go(func() error {
			elev, err := withTimeout(gctx, n.timeout, func(ctx context.Context) (float64, error) {
				return n.lookups.Elevation.Elevation(ctx, lat, lon)
			})
			if err != nil {
				n.degrade(ctx, res, LookupElevation, err)
				return nil
			}
			res.elevation = &elev
			return nil
		})
	}
	if n.lookups.SunTimes != nil {
		g.Go(func() error {
			sun, err := withTimeout(gctx, n.timeout, func(ctx context.Context) (*external.SunTimes, error) {
				return n.lookups.SunTimes.SunTimes(ctx, lat, lon, local)
			})
			if err != nil {
				n.degrade(ctx, res, LookupSunTimes, err)
				return nil
			}
			res.sun = sun
			return nil
		})
	}

	_ = g.Wait()
	return res
}

func (n *Normalizer) degrade(ctx context.Context, res *lookupResults, lookup string, err error) {
	res.fail(lookup)
	n.logger.WarnContext(ctx, "context lookup failed; signal degraded to absent",
		"lookup", lookup,
		"error", err,
	)
	if n.observer != nil {
		n.observer.RecordLookupFailure(ctx, lookup)
	}
}

// apply copies lookup results into the snapshot.
func (n *Normalizer) apply(snap *types.Snapshot, res *lookupResults) {
	if res.place != nil {
		if lt, ok := LocationTypeOf(res.place); ok {
			snap.Set(types.SignalLocationType, types.Text(lt))
		}
		snap.LocationLabel = LocationLabel(res.place)
	}
	if res.weather != nil {
		if code, ok := BucketWeatherCode(res.weather.Code); ok {
			snap.Set(types.SignalWeatherCode, types.Number(float64(code)))
		}
		snap.Set(types.SignalTemperature, types.Number(res.weather.Temperature))
	}
	if res.elevation != nil {
		snap.Set(types.SignalAltitude, types.Number(*res.elevation))
	}
}

// withTimeout runs fn under a per-lookup deadline derived from ctx.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func messageTexts(msgs []types.GroupMessage) []string {
	var out []string
	for _, m := range msgs {
		if t := strings.TrimSpace(m.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
