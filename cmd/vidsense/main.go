package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aixgo-dev/vidsense/internal/observability"
	"github.com/aixgo-dev/vidsense/internal/search"
	"github.com/aixgo-dev/vidsense/internal/server"
	"github.com/aixgo-dev/vidsense/internal/service"
	"github.com/aixgo-dev/vidsense/internal/session"
	"github.com/aixgo-dev/vidsense/internal/youtube"
	"github.com/aixgo-dev/vidsense/pkg/config"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

var configFile = flag.String("config", getEnv("VIDSENSE_CONFIG", ""), "Configuration file (YAML)")

func main() {
	flag.Parse()

	log.Printf("Starting VidSense v%s", server.Version)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	observability.InitMetrics()
	if err := observability.InitTracing(); err != nil {
		log.Printf("tracing disabled: %v", err)
	}

	client, err := llm.NewClient(cfg.Provider, cfg.APIKey())
	if err != nil {
		log.Fatalf("create llm client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	videos, err := youtube.NewClient(ctx, cfg.YouTubeKey)
	if err != nil {
		log.Fatalf("create youtube client: %v", err)
	}
	searcher := search.NewClient(cfg.TavilyKey)

	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("create checkpoint backend: %v", err)
	}
	defer backend.Close()

	store := session.NewStore(session.WithTTL(cfg.SessionTTL))
	analyzer := service.NewAnalyzer(cfg, client, searcher, videos, store, backend)
	srv := server.New(cfg, analyzer)

	go srv.SweepLoop(ctx, cfg.SweepInterval)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
	case <-quit:
		log.Println("Shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := observability.Shutdown(shutdownCtx); err != nil {
		log.Printf("observability shutdown error: %v", err)
	}

	log.Println("Stopped")
}

func newBackend(cfg *config.Config) (session.Backend, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryBackend(), nil
	}
	return session.NewRedisBackend(session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.SessionTTL,
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
