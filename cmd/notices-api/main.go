package main

import (
	"log"
	"os"

	"github.com/pevans/noticeharvest/api"
	"github.com/pevans/noticeharvest/archive"
	"github.com/pevans/noticeharvest/config"
	"github.com/pevans/noticeharvest/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	alog, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      logger.ConsoleFormat,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer alog.Sync()

	var runs api.RunStore
	if cfg.ArchiveDSN != "" {
		store, err := archive.NewStore(cfg.ArchiveDSN)
		if err != nil {
			alog.Error("Failed to open run archive", logger.String("dsn", cfg.ArchiveDSN), logger.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		runs = store
	}

	server := api.NewServer(cfg.ResultPath, runs)
	router := server.SetupRouter()

	alog.Info("Starting notices API server",
		logger.String("addr", cfg.APIAddr),
		logger.String("result", cfg.ResultPath),
		logger.Bool("archive", runs != nil),
	)

	if err := router.Run(cfg.APIAddr); err != nil {
		alog.Error("Server failed", logger.Error(err))
		os.Exit(1)
	}
}
