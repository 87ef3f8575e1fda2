package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-agent/internal/adapter/httpapi"
	"shop-agent/internal/di"
	"shop-agent/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	container, err := di.NewContainer(di.Config{
		OpenRouterAPIKey:  envService.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:   envService.Get("OPENROUTER_MODEL_NAME"),
		TargetBaseURL:     envService.Get("TARGET_BASE_URL"),
		ArtifactsDir:      envService.Get("ARTIFACTS_DIR"),
		StorageDir:        envService.Get("STORAGE_DIR"),
		BrowserHeadless:   envService.GetBool("BROWSER_HEADLESS", true),
		StealthMode:       envService.Get("STEALTH_MODE"),
		ProxyList:         envService.GetStrings("PROXY_LIST"),
		ProxyFile:         envService.Get("PROXY_FILE"),
		ProxyStatusFile:   envService.Get("PROXY_STATUS_FILE"),
		BackendURL:        envService.Get("BACKEND_URL"),
		WorkerConcurrency: envService.GetInt("WORKER_CONCURRENCY", 2),
		Debug:             envService.GetBool("DEBUG", false),
	})
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer container.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	container.Queue.Start(ctx)

	if container.ProxyPool.Has() {
		interval := envService.GetDuration("PROXY_PROBE_INTERVAL", 5*time.Minute)
		go container.Prober.RunLoop(ctx, interval)
	}

	api := httpapi.NewServer(
		container.Parser,
		container.Queue,
		container.Queue,
		container.Results,
		container.Artifacts,
		container.Prober,
		container.Logger,
	)

	addr := envService.GetWithDefault("HTTP_ADDR", ":8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			container.Logger.Warn("http shutdown failed", "error", err)
		}
	}()

	container.Logger.Info("server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}

	container.Queue.Wait()
	container.Logger.Info("server stopped")
}
