package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/app"
	"github.com/shrimpsizemoose/scratchdrop/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	// submissions are accepted in local mode until the remote store answers
	go func() {
		if err := service.ConnectRemote(context.Background()); err != nil {
			logger.Error.Printf("Remote store unavailable, staying in local mode: %v", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.NewSubmissionHandler(service).Register(mux)

	mux.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting scratchdrop server on %s", service.Config.Server.Port)
	logger.Debug.Printf("Staff auth enabled: %v", service.Auth.Enabled())
	if err := http.ListenAndServe(service.Config.Server.Port, mux); err != nil {
		logger.Error.Fatalf("Scratchdrop server failed: %v", err)
	}
}
