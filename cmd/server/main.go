package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/studioops/funnelio/pkg/config"
	"github.com/studioops/funnelio/pkg/server"
	"github.com/studioops/funnelio/pkg/storage"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "funnelio",
	})

	var (
		port   = flag.String("port", "3000", "Server port")
		dbPath = flag.String("db", "./data/funnelio.db", "SQLite database path")
	)
	flag.Parse()

	cfg, err := config.Build("", nil)
	if err != nil {
		logger.Fatal("config error", "err", err)
	}
	cfg.Port = *port
	cfg.DBPath = *dbPath

	repo, err := storage.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("storage error", "err", err)
	}
	defer repo.Close()

	srv := server.New(cfg, logger, repo)
	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	logger.Info("starting server", "addr", addr)
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
