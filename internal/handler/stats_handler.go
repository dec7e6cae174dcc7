package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"airportmath/internal/hub"
	"airportmath/internal/routing"
	"airportmath/internal/store"
)

// Stats tracks server-wide metrics
type Stats struct {
	startTime     time.Time
	requestCount  atomic.Int64
	wsConnections atomic.Int64
	wsMessagesIn  atomic.Int64
	wsMessagesOut atomic.Int64
}

// Global stats instance
var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()      { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections() { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections() { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()  { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut() { s.wsMessagesOut.Add(1) }

// SourceReporter names where the airport dataset came from
type SourceReporter interface {
	Source() string
}

type StatsHandler struct {
	store     *store.AirportStore
	source    SourceReporter
	estimator *routing.Estimator
	hub       *hub.Hub
}

func NewStatsHandler(s *store.AirportStore, source SourceReporter, estimator *routing.Estimator, h *hub.Hub) *StatsHandler {
	return &StatsHandler{
		store:     s,
		source:    source,
		estimator: estimator,
		hub:       h,
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse    `json:"server"`
	Airports  AirportStatsResponse   `json:"airports"`
	Routing   routing.Stats          `json:"routing"`
	WebSocket WebSocketStatsResponse `json:"websocket"`
	Go        GoStatsResponse        `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
	Version       string    `json:"version"`
}

type AirportStatsResponse struct {
	store.AirportStats
	IsLoaded bool   `json:"is_loaded"`
	Source   string `json:"source"`
}

type WebSocketStatsResponse struct {
	Connections      int64 `json:"connections"`
	CountdownClients int   `json:"countdown_clients"`
	MessagesIn       int64 `json:"messages_in"`
	MessagesOut      int64 `json:"messages_out"`
	Dropped          int64 `json:"dropped"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(ServerStats.startTime)

	airportStats := h.store.Stats()
	source := "unknown"
	if h.source != nil {
		source = h.source.Source()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     ServerStats.startTime,
			RequestCount:  ServerStats.requestCount.Load(),
			Version:       "1.0.0",
		},
		Airports: AirportStatsResponse{
			AirportStats: airportStats,
			IsLoaded:     airportStats.Count > 0,
			Source:       source,
		},
		Routing: h.estimator.Stats(),
		WebSocket: WebSocketStatsResponse{
			Connections:      ServerStats.wsConnections.Load(),
			CountdownClients: h.hub.ClientCount(),
			MessagesIn:       ServerStats.wsMessagesIn.Load(),
			MessagesOut:      ServerStats.wsMessagesOut.Load(),
			Dropped:          h.hub.Dropped(),
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	json.NewEncoder(w).Encode(response)
}
