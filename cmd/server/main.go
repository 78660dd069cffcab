package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/app"
	"github.com/dgnsrekt/options-levels/internal/batch"
	"github.com/dgnsrekt/options-levels/internal/config"
	"github.com/dgnsrekt/options-levels/internal/server"
	"github.com/dgnsrekt/options-levels/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", os.Getenv("OPTLEVELS_CONFIG"), "config file path (or set OPTLEVELS_CONFIG)")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	// Setup logger
	logger, err := app.NewLogger("server", *verbose, &cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("dataDir", cfg.Data.Directory),
		zap.String("dataDate", cfg.Data.Date),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Int("workers", cfg.Analysis.Workers),
		zap.Int("maxBatchSize", cfg.Analysis.MaxBatchSize),
		zap.Bool("wsEnabled", cfg.Server.WSEnabled),
		zap.Duration("wsStreamInterval", cfg.Server.WSStreamInterval),
	)

	src, err := app.NewSource(cfg, "", logger)
	if err != nil {
		logger.Error("failed to create data source", zap.Error(err))
		return 1
	}

	analyzer := batch.NewAnalyzer(src.Client, app.AnalysisOptions(cfg), logger)
	manager := batch.NewManager(analyzer, cfg.Analysis.Workers, cfg.Analysis.MaxBatchSize, logger)

	var reload *server.ReloadManager
	if src.Files != nil {
		reload = server.NewReloadManager(src.Files, src.Cache, cfg.Data.Directory, logger)
		logger.Info("serving recorded snapshots",
			zap.String("dir", src.Files.Dir()),
			zap.Strings("tickers", src.Files.Tickers()),
		)
	}

	srv := server.NewServer(analyzer, manager, reload, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket components (optional)
	var streaming *server.Streaming
	if cfg.Server.WSEnabled {
		encoder, err := ws.NewEncoder()
		if err != nil {
			logger.Error("failed to create websocket encoder", zap.Error(err))
			return 1
		}
		defer encoder.Close()

		hub := ws.NewHub("levels", ws.TickerGroup, logger)
		streamer := ws.NewStreamer(hub, manager, encoder, cfg.Server.WSStreamInterval, logger)
		go hub.Run(ctx)
		go streamer.Run(ctx)

		streaming = &server.Streaming{
			Hub:       hub,
			Encoder:   encoder,
			Negotiate: ws.NewNegotiateHandler(cfg.Server.WSStreamInterval, manager.MaxBatchSize(), logger),
		}

		logger.Info("WebSocket enabled",
			zap.Strings("protocols", []string{ws.ProtocolJSON, ws.ProtocolProtobuf}),
			zap.Duration("streamInterval", cfg.Server.WSStreamInterval),
		)
	}

	router := server.NewRouter(srv, streaming, cfg.Server.CORSOrigin, logger)

	// Setup HTTP server. WriteTimeout covers a full batch of analyses.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Cancel context to stop WebSocket components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	if src.Cache != nil {
		hits, misses := src.Cache.Stats()
		logger.Info("cache stats", zap.Int64("hits", hits), zap.Int64("misses", misses))
	}

	logger.Info("server stopped")
	return 0
}
