package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/app"
	"github.com/shrimpsizemoose/scratchdrop/internal/metrics"
	"github.com/shrimpsizemoose/scratchdrop/internal/query"
)

const stampFormat = "20060102T150405Z"

// CSVExporter writes a timestamped CSV snapshot of every submission on a cron schedule.
type CSVExporter struct {
	config    *app.Config
	engine    *query.Engine
	scheduler *gocron.Scheduler
	now       func() time.Time
}

func NewCSVExporter(config *app.Config, engine *query.Engine) *CSVExporter {
	return &CSVExporter{
		config:    config,
		engine:    engine,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}
}

// Start schedules the export and runs the scheduler in the background.
func (e *CSVExporter) Start() error {
	_, err := e.scheduler.Cron(e.config.Export.Schedule).Do(func() {
		if _, err := e.Export(context.Background()); err != nil {
			logger.Error.Printf("Export failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export: %w", err)
	}

	e.scheduler.StartAsync()
	return nil
}

func (e *CSVExporter) Stop() {
	e.scheduler.Stop()
}

// Export reloads the submissions and writes them newest first. It returns the
// path of the written file.
func (e *CSVExporter) Export(ctx context.Context) (string, error) {
	if err := e.engine.Refresh(ctx); err != nil {
		return "", fmt.Errorf("failed to load submissions: %w", err)
	}
	rows := query.Sort(e.engine.Snapshot())

	if err := os.MkdirAll(e.config.Export.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(e.config.Export.OutputDir, e.fileName())
	tmp, err := os.CreateTemp(e.config.Export.OutputDir, ".export-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := query.WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	metrics.ExportsTotal.WithLabelValues("schedule").Inc()
	logger.Info.Printf("Exported %d submissions to %s", len(rows), path)
	return path, nil
}

// fileName stamps the configured name: y8_scratch_submissions.csv becomes
// y8_scratch_submissions-20250101T180000Z.csv
func (e *CSVExporter) fileName() string {
	name := e.config.Export.Filename
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = ".csv"
	}
	return fmt.Sprintf("%s-%s%s", base, e.now().UTC().Format(stampFormat), ext)
}
