package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airportmath/internal/cache"
	"airportmath/internal/config"
	"airportmath/internal/departure"
	"airportmath/internal/handler"
	"airportmath/internal/hub"
	"airportmath/internal/ingestor"
	"airportmath/internal/middleware"
	"airportmath/internal/routing"
	"airportmath/internal/store"
	"airportmath/pkg/osrm"
	"airportmath/pkg/ourairports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting airportmath server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"routing_enabled", cfg.RoutingEnabled,
		"redis_enabled", cfg.RedisEnabled,
	)

	var snapshots ingestor.SnapshotCache
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without shared snapshot", "error", err)
		} else {
			defer redisCache.Close()
			snapshots = redisCache
			logger.Info("redis cache connected", "addr", cfg.RedisAddr)
		}
	}

	downloader := ourairports.NewDownloader(cfg.AirportsCSVURL, cfg.AirportsDownloadTimeout, logger)
	loader := ingestor.NewAirportLoader(downloader, snapshots, cfg.AirportsCacheDir, cfg.AirportsCacheTTL, logger)
	airportStore := store.NewAirportStore(loader, cfg.AirportsCacheTTL, cfg.AirportsDownloadTimeout+10*time.Second, logger)

	var router routing.Router
	if cfg.RoutingEnabled {
		router = osrm.New(cfg.OSRMURL, cfg.RoutingTimeout)
	}
	estimator := routing.NewEstimator(router, cfg.RoutingTimeout, logger)
	calculator := departure.NewCalculator(departure.SystemClock{})
	countdownHub := hub.NewHub(calculator, cfg.CountdownInterval, logger)

	warmCtx, warmCancel := context.WithTimeout(context.Background(), cfg.AirportsDownloadTimeout+10*time.Second)
	if _, err := airportStore.Airports(warmCtx); err != nil {
		logger.Warn("initial airport load failed, will retry on first request", "error", err)
	}
	warmCancel()

	airportsHandler := handler.NewAirportsHandler(airportStore, logger)
	routesHandler := handler.NewRoutesHandler(airportStore, estimator, logger)
	departureHandler := handler.NewDepartureHandler(airportStore, estimator, calculator, logger)
	wsHandler := handler.NewWSHandler(countdownHub, departureHandler, cfg.CORSAllowedOrigins, logger)
	healthHandler := handler.NewHealthHandler(airportStore)
	statsHandler := handler.NewStatsHandler(airportStore, loader, estimator, countdownHub)

	api := http.NewServeMux()

	api.HandleFunc("GET /v1/airports/nearby", airportsHandler.Nearby)
	api.HandleFunc("GET /v1/airports/search", airportsHandler.Search)
	api.HandleFunc("GET /v1/airports/{code}", airportsHandler.GetAirport)
	api.HandleFunc("GET /v1/transport-modes", airportsHandler.TransportModes)
	api.HandleFunc("GET /v1/routes", routesHandler.ListRoutes)
	api.HandleFunc("POST /v1/departures", departureHandler.Calculate)
	api.HandleFunc("GET /v1/stats", statsHandler.GetStats)

	api.HandleFunc("GET /healthz", healthHandler.Healthz)
	api.HandleFunc("GET /readyz", healthHandler.Readyz)

	// websocket upgrades bypass gzip
	mux := http.NewServeMux()
	mux.Handle("/", handler.GzipMiddleware(api))
	mux.HandleFunc("GET /v1/departures/live", wsHandler.ServeWS)

	requestLogger := middleware.NewRequestLogger(logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      requestLogger.Middleware(handler.CountRequests(handler.CORSMiddleware(cfg.CORSAllowedOrigins)(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go countdownHub.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
