package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airportmath/internal/departure"
	"airportmath/internal/domain"
	"airportmath/internal/hub"
	"airportmath/internal/middleware"
	"airportmath/internal/routing"
	"airportmath/internal/store"
	"airportmath/pkg/ourairports"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// central London
const originQuery = "lat=51.5074&lng=-0.1278"

var originLondon = domain.Coordinate{Lat: 51.5074, Lng: -0.1278}

type staticLoader []domain.Airport

func (l staticLoader) Load(ctx context.Context) ([]domain.Airport, error) {
	return l, nil
}

type testEnv struct {
	store      *store.AirportStore
	estimator  *routing.Estimator
	calculator *departure.Calculator
	hub        *hub.Hub
	mux        *http.ServeMux
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, dataset []domain.Airport) *testEnv {
	t.Helper()
	logger := testLogger()

	env := &testEnv{
		store:      store.NewAirportStore(staticLoader(dataset), time.Hour, 0, logger),
		estimator:  routing.NewEstimator(nil, time.Second, logger),
		calculator: departure.NewCalculator(departure.FixedClock(testNow)),
	}
	env.hub = hub.NewHub(env.calculator, 20*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.hub.Run(ctx)

	airportsHandler := NewAirportsHandler(env.store, logger)
	routesHandler := NewRoutesHandler(env.store, env.estimator, logger)
	departureHandler := NewDepartureHandler(env.store, env.estimator, env.calculator, logger)
	wsHandler := NewWSHandler(env.hub, departureHandler, nil, logger)
	healthHandler := NewHealthHandler(env.store)
	statsHandler := NewStatsHandler(env.store, nil, env.estimator, env.hub)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/airports/nearby", airportsHandler.Nearby)
	mux.HandleFunc("GET /v1/airports/search", airportsHandler.Search)
	mux.HandleFunc("GET /v1/airports/{code}", airportsHandler.GetAirport)
	mux.HandleFunc("GET /v1/transport-modes", airportsHandler.TransportModes)
	mux.HandleFunc("GET /v1/routes", routesHandler.ListRoutes)
	mux.HandleFunc("POST /v1/departures", departureHandler.Calculate)
	mux.HandleFunc("/v1/departures/live", wsHandler.ServeWS)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.HandleFunc("GET /v1/stats", statsHandler.GetStats)
	env.mux = mux

	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNearby(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/v1/airports/nearby?"+originQuery+"&maxResults=3&maxDistanceKm=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[struct {
		Airports     []domain.Airport  `json:"airports"`
		UserLocation domain.Coordinate `json:"userLocation"`
	}](t, rec)

	require.Len(t, resp.Airports, 3)
	assert.Equal(t, "LHR", resp.Airports[0].IATA)
	assert.Equal(t, "CDG", resp.Airports[1].IATA)
	assert.Equal(t, "AMS", resp.Airports[2].IATA)
	require.NotNil(t, resp.Airports[0].DistanceKm)
	assert.InDelta(t, 22.99, *resp.Airports[0].DistanceKm, 0.01)
	assert.Equal(t, "23km", resp.Airports[0].DistanceText)
	assert.Equal(t, originLondon, resp.UserLocation)
}

func TestNearby_NothingInRange(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/v1/airports/nearby?"+originQuery+"&maxDistanceKm=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"airports":[]`)
}

func TestNearby_BadInput(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	tests := []struct {
		name  string
		query string
	}{
		{"missing lng", "lat=51.5"},
		{"not a number", "lat=abc&lng=0"},
		{"out of range", "lat=91&lng=0"},
		{"bad maxResults", originQuery + "&maxResults=ten"},
		{"bad maxDistanceKm", originQuery + "&maxDistanceKm=far"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/v1/airports/nearby?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/v1/airports/search?q=international", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SearchResponse](t, rec)
	assert.Equal(t, 5, resp.Count)
	assert.Equal(t, "LAX", resp.Airports[0].IATA)

	rec = env.do(t, http.MethodGet, "/v1/airports/search?q=international&limit=2", "")
	resp = decode[SearchResponse](t, rec)
	assert.Equal(t, 2, resp.Count)

	rec = env.do(t, http.MethodGet, "/v1/airports/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAirport(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/v1/airports/cdg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	airport := decode[domain.Airport](t, rec)
	assert.Equal(t, "LFPG", airport.ICAO)
	assert.Nil(t, airport.DistanceKm)

	rec = env.do(t, http.MethodGet, "/v1/airports/ZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransportModes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/v1/transport-modes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TransportModesResponse](t, rec)
	assert.Equal(t, domain.TransportModes(), resp.Modes)
}

func TestListRoutes(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/v1/routes?"+originQuery+"&airport=LHR&modes=driving-car,foot-walking", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[RoutesResponse](t, rec)
	assert.Equal(t, "LHR", resp.Airport.IATA)
	require.Equal(t, 2, resp.Count)

	driving := resp.Routes[0]
	assert.Equal(t, domain.ModeDriving, driving.Mode.ID)
	assert.Equal(t, 36, driving.Duration)
	assert.Equal(t, 29881.0, driving.Distance)
	assert.True(t, driving.Estimated)
	assert.Equal(t, "36m", driving.DurationText)
	assert.Equal(t, "30km", driving.DistanceText)

	walking := resp.Routes[1]
	assert.Equal(t, domain.ModeWalking, walking.Mode.ID)
	assert.Equal(t, 317, walking.Duration)
	assert.Equal(t, "5h 17m", walking.DurationText)
}

func TestListRoutes_AllModesByDefault(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/v1/routes?"+originQuery+"&airport=LHR", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RoutesResponse](t, rec)
	require.Len(t, resp.Routes, 4)
	for i, m := range domain.TransportModes() {
		assert.Equal(t, m.ID, resp.Routes[i].Mode.ID)
	}
}

func TestListRoutes_Errors(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing airport", originQuery, http.StatusBadRequest},
		{"unknown mode", originQuery + "&airport=LHR&modes=teleport", http.StatusBadRequest},
		{"unknown airport", originQuery + "&airport=ZZZ", http.StatusNotFound},
		{"missing origin", "airport=LHR", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/v1/routes?"+tt.query, "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCalculateDepartures(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	body := `{"departureTime":"18:00","airport":"lhr","origin":{"lat":51.5074,"lng":-0.1278},"modes":["driving-car"]}`
	rec := env.do(t, http.MethodPost, "/v1/departures", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[DepartureResponse](t, rec)
	assert.Equal(t, "LHR", resp.Airport.IATA)
	assert.True(t, testNow.Equal(resp.ServerTime))
	require.Len(t, resp.Options, 1)

	opt := resp.Options[0]
	assert.Equal(t, 36, opt.Route.Duration)
	assert.Equal(t, 106, opt.Calculation.TotalBuffer)
	assert.Equal(t, time.Date(2026, 3, 14, 15, 38, 0, 0, time.UTC), opt.Calculation.LeaveTime.UTC())
	assert.Equal(t, 368, opt.TimeUntil.TotalMinutes)
	assert.Equal(t, "Leave in 6h 8m", opt.Summary)
	assert.Equal(t, "3:38 PM", opt.LeaveAt)
	assert.Equal(t, "5:00 PM", opt.ArriveBy)
	assert.Equal(t, "6:00 PM", opt.FlightAt)
	assert.Equal(t, "1h 46m", opt.BufferText)
}

func TestCalculateDepartures_PreferencesAnd24Hour(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	body := `{
		"departureTime": "18:00",
		"airport": "LHR",
		"origin": {"lat": 51.5074, "lng": -0.1278},
		"modes": ["driving-car"],
		"use24Hour": true,
		"preferences": {"hasCheckedBags": true, "needsPassportControl": true, "safetyMarginLevel": 3, "additionalBuffer": 10}
	}`
	rec := env.do(t, http.MethodPost, "/v1/departures", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	opt := decode[DepartureResponse](t, rec).Options[0]
	// 60 gate + 22 bags + 31 security + 28 passport + 15 safety + 10 extra
	assert.Equal(t, 166, opt.Calculation.TotalBuffer)
	assert.Equal(t, 25, opt.Calculation.Breakdown.Safety)
	assert.Equal(t, "14:38", opt.LeaveAt)
	assert.Equal(t, "17:00", opt.ArriveBy)
}

func TestCalculateDepartures_Errors(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"departureTime":`, http.StatusBadRequest},
		{"bad time", `{"departureTime":"25:00","airport":"LHR","origin":{"lat":51.5,"lng":-0.1}}`, http.StatusBadRequest},
		{"bad origin", `{"departureTime":"18:00","airport":"LHR","origin":{"lat":95,"lng":-0.1}}`, http.StatusBadRequest},
		{"no airport", `{"departureTime":"18:00","origin":{"lat":51.5,"lng":-0.1}}`, http.StatusBadRequest},
		{"unknown airport", `{"departureTime":"18:00","airport":"ZZZ","origin":{"lat":51.5,"lng":-0.1}}`, http.StatusNotFound},
		{"unknown mode", `{"departureTime":"18:00","airport":"LHR","origin":{"lat":51.5,"lng":-0.1},"modes":["hover"]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/departures", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := env.store.Airports(context.Background())
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadyResponse](t, rec)
	assert.True(t, ready.Ready)
	assert.Equal(t, 10, ready.AirportCount)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, ourairports.Fallback())

	env.do(t, http.MethodGet, "/v1/routes?"+originQuery+"&airport=LHR&modes=cycling-regular", "")

	rec := env.do(t, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	resp := decode[StatsResponse](t, rec)
	assert.Equal(t, 10, resp.Airports.Count)
	assert.True(t, resp.Airports.IsLoaded)
	assert.Equal(t, "unknown", resp.Airports.Source)
	assert.Equal(t, int64(1), resp.Routing.AnalyticEstimates)
	assert.NotEmpty(t, resp.Go.GoVersion)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("any origin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORSMiddleware(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		CORSMiddleware([]string{"https://app.example.com/"})(next).ServeHTTP(rec, req)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		CORSMiddleware([]string{"https://app.example.com"})(next).ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORSMiddleware(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGzipMiddleware(t *testing.T) {
	payload := bytes.Repeat([]byte("airport "), 512)
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Less(t, rec.Body.Len(), len(payload))
}

func TestRequestLogger_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.NewRequestLogger(testLogger()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestLogger(logger, r).Error("airport dataset unavailable")
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/airports/nearby", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Contains(t, buf.String(), `"request_id":"trace-42"`)

	buf.Reset()
	requestLogger(logger, httptest.NewRequest(http.MethodGet, "/", nil)).Error("no id")
	assert.NotContains(t, buf.String(), "request_id")
}
