package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg.logger.Debug("configuration loaded")

	if err := cfg.ConnectDB(); err != nil {
		os.Exit(1)
	}
	if err := cfg.ConnectCache(); err != nil {
		os.Exit(1)
	}

	var notifier NotificationSink
	if sink, sinkErr := newNotifySendSink(); sinkErr == nil {
		notifier = sink
	} else {
		cfg.logger.Info("notify-send not available, notifications go to the log", "error", sinkErr)
		notifier = &logSink{logger: cfg.logger}
	}

	engine := NewEngine(cfg, notifier, &logRenderTarget{logger: cfg.logger})
	cfg.logger.Info("starting engine", "tick", cfg.tickInterval.String())
	engine.Start()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/timings", engine.handlerTimings)
	mux.HandleFunc("/api/nextprayer", engine.handlerNextPrayer)
	mux.HandleFunc("/api/refresh", engine.handlerRefresh)
	mux.HandleFunc("/api/history", cfg.handlerHistory)
	mux.HandleFunc("/api/config", cfg.handlerConfig)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.devMode {
		cfg.logger.Debug("development mode enabled. Registering /dev/reset-db endpoint.")
		mux.HandleFunc("/dev/reset-db", cfg.handlerResetDB)
	}

	server := &http.Server{
		Addr:    ":" + cfg.port,
		Handler: corsMiddleware(metricsMiddleware(mux)),
	}

	cfg.logger.Info("starting server", "port", cfg.port)
	err = server.ListenAndServe()
	if err != nil {
		cfg.logger.Error("server startup failed", "error", err)
		os.Exit(1)
	}
}
