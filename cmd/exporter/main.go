package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/app"
	"github.com/shrimpsizemoose/scratchdrop/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var once = flag.Bool("once", false, "Write a single snapshot and exit")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.ConnectRemote(context.Background()); err != nil {
		logger.Error.Fatalf("Failed to connect remote store: %v", err)
	}

	exporter := export.NewCSVExporter(service.Config, service.Engine)

	if *once {
		if _, err := exporter.Export(context.Background()); err != nil {
			logger.Error.Fatalf("Export failed: %v", err)
		}
		return
	}

	if err := exporter.Start(); err != nil {
		logger.Error.Fatalf("Failed to initialize CSV exporter: %v", err)
	}
	defer exporter.Stop()

	logger.Info.Printf("Exporting on schedule %q into %s", service.Config.Export.Schedule, service.Config.Export.OutputDir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Exporter stopped")
}
