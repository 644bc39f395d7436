package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"phoa/internal/types"
)

func TestNominatimReverseGeocode(t *testing.T) {
	var gotQuery, gotPath, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{
			"place_id": 1,
			"class": "amenity",
			"type": "Hospital",
			"name": "Spitalul Colentina",
			"display_name": "Spitalul Colentina, Bucuresti, Romania"
		}`))
	}))
	defer server.Close()

	client := NewNominatimClient(server.Client(), NominatimConfig{BaseURL: server.URL + "/"})
	place, err := client.ReverseGeocode(context.Background(), 44.452, 26.125)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}

	if gotPath != "/reverse" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "format=json&lat=44.452000&lon=26.125000&zoom=18" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if place.Class != "amenity" || place.Type != "hospital" || place.Name != "Spitalul Colentina" {
		t.Errorf("place = %+v", place)
	}
}

func TestNominatimErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer server.Close()

	client := NewNominatimClient(server.Client(), NominatimConfig{BaseURL: server.URL})
	_, err := client.ReverseGeocode(context.Background(), 0, 0)
	if code := appErrorCode(t, err); code != types.ErrCodeUpstreamMalformed {
		t.Errorf("code = %s", code)
	}
}

func TestOpenMeteoCurrentWeather(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = r.URL.Query().Get("current")
		w.Write([]byte(`{
			"latitude": 44.44,
			"current": {"time": "2026-04-02T10:15", "interval": 900, "temperature_2m": 14.2, "weather_code": 63}
		}`))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.Client(), OpenMeteoConfig{BaseURL: server.URL})
	cw, err := client.CurrentWeather(context.Background(), 44.44, 26.1)
	if err != nil {
		t.Fatalf("CurrentWeather: %v", err)
	}
	if gotQuery != "temperature_2m,weather_code" {
		t.Errorf("current = %q", gotQuery)
	}
	if cw.Code != 63 || cw.Temperature != 14.2 {
		t.Errorf("weather = %+v", cw)
	}
	if !cw.ObservedAt.Equal(time.Date(2026, 4, 2, 10, 15, 0, 0, time.UTC)) {
		t.Errorf("ObservedAt = %v", cw.ObservedAt)
	}
}

func TestOpenMeteoMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current": {"time": "2026-04-02T10:15", "temperature_2m": 14.2}}`))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.Client(), OpenMeteoConfig{BaseURL: server.URL})
	_, err := client.CurrentWeather(context.Background(), 1, 1)
	if code := appErrorCode(t, err); code != types.ErrCodeUpstreamMalformed {
		t.Errorf("code = %s", code)
	}
}

func TestOpenMeteoElevation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("latitude") {
		case "46.000000":
			w.Write([]byte(`{"elevation": [1874.0]}`))
		default:
			w.Write([]byte(`{"elevation": []}`))
		}
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.Client(), OpenMeteoConfig{BaseURL: server.URL})
	elev, err := client.Elevation(context.Background(), 46, 7)
	if err != nil || elev != 1874 {
		t.Fatalf("Elevation = %v, %v", elev, err)
	}
	if _, err := client.Elevation(context.Background(), 1, 1); err == nil {
		t.Error("empty elevation array should be an error")
	}
}

func TestSunriseSunTimes(t *testing.T) {
	var gotDate, gotFormatted string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		gotFormatted = r.URL.Query().Get("formatted")
		w.Write([]byte(`{
			"results": {
				"sunrise": "2026-04-02T03:58:12+00:00",
				"sunset": "2026-04-02T16:46:40+00:00"
			},
			"status": "OK"
		}`))
	}))
	defer server.Close()

	client := NewSunriseClient(server.Client(), SunriseConfig{BaseURL: server.URL})
	st, err := client.SunTimes(context.Background(), 44.4, 26.1, time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SunTimes: %v", err)
	}
	if gotDate != "2026-04-02" || gotFormatted != "0" {
		t.Errorf("date=%q formatted=%q", gotDate, gotFormatted)
	}
	if st.Sunrise.Hour() != 3 || st.Sunset.Hour() != 16 {
		t.Errorf("sun times = %+v", st)
	}
}

func TestSunriseBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": "", "status": "INVALID_REQUEST"}`))
	}))
	defer server.Close()

	client := NewSunriseClient(server.Client(), SunriseConfig{BaseURL: server.URL})
	_, err := client.SunTimes(context.Background(), 1, 1, time.Now())
	if err == nil {
		t.Fatal("expected an error for a non-OK status")
	}
}

// TestProvidersRetryThroughSharedBase checks that the provider clients
// inherit retries from an injected BaseClient.
func TestProvidersRetryThroughSharedBase(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1)%2 == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case "/reverse":
			w.Write([]byte(`{"class": "leisure", "type": "park", "name": "Herastrau"}`))
		case "/v1/elevation":
			w.Write([]byte(`{"elevation": [90.0]}`))
		default:
			w.Write([]byte(`{"results": {"sunrise": "2026-04-02T03:58:12+00:00", "sunset": "2026-04-02T16:46:40+00:00"}, "status": "OK"}`))
		}
	}))
	defer server.Close()

	base := NewBaseClient(server.Client(), "shared", fastPolicy(1), "PhoA-Test/1.0", WithSleepFunc(noopSleep))
	ctx := context.Background()

	place, err := NewNominatimClientWithBase(base, NominatimConfig{BaseURL: server.URL}).ReverseGeocode(ctx, 44.47, 26.08)
	if err != nil || place.Type != "park" {
		t.Fatalf("ReverseGeocode = %+v, %v", place, err)
	}
	elev, err := NewOpenMeteoClientWithBase(base, OpenMeteoConfig{BaseURL: server.URL}).Elevation(ctx, 44.47, 26.08)
	if err != nil || elev != 90 {
		t.Fatalf("Elevation = %v, %v", elev, err)
	}
	st, err := NewSunriseClientWithBase(base, SunriseConfig{BaseURL: server.URL}).SunTimes(ctx, 44.47, 26.08, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))
	if err != nil || st.Sunset.Hour() != 16 {
		t.Fatalf("SunTimes = %+v, %v", st, err)
	}
	if got := calls.Load(); got != 6 {
		t.Errorf("upstream calls = %d, want 6", got)
	}
}
