package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/noticeharvest/archive"
	"github.com/pevans/noticeharvest/browser"
	"github.com/pevans/noticeharvest/config"
	"github.com/pevans/noticeharvest/discovery"
	"github.com/pevans/noticeharvest/logger"
	"github.com/pevans/noticeharvest/notice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	hlog, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		log.Fatalf("Failed to open harvest log: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, hlog)
	stop()
	_ = hlog.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, hlog logger.Logger) error {
	launch, err := browser.NewLauncher(cfg.Browser, cfg.BrowserOptions())
	if err != nil {
		return err
	}

	harvester := discovery.NewHarvester(cfg.Harvest, launch, hlog.With(logger.String("backend", cfg.Browser)))
	result, report, err := harvester.Run(ctx)
	if err != nil {
		return err
	}

	if err := notice.Encode(os.Stdout, result); err != nil {
		return err
	}

	if err := notice.WriteFile(cfg.ResultPath, result); err != nil {
		return err
	}
	hlog.Info("Wrote harvest result", logger.String("path", cfg.ResultPath))

	if cfg.ArchiveDSN != "" {
		if err := archiveRun(cfg.ArchiveDSN, result, report); err != nil {
			hlog.Warn("Failed to archive run", logger.Error(err))
		}
	}

	return nil
}

func archiveRun(dsn string, result *notice.HarvestResult, report *discovery.Report) error {
	store, err := archive.NewStore(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	run := archive.NewRun(result, report.StartedAt, report.FinishedAt, report.UsedFallback, len(report.Failures))
	return store.RecordRun(run)
}
