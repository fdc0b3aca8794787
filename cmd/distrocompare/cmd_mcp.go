package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/catalog"
	"github.com/HerbHall/distrocompare/internal/config"
	"github.com/HerbHall/distrocompare/internal/mcpserver"
)

func runMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	// Stdout carries the protocol; the production logger writes to stderr.
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, _, err := loadCatalog(ctx, cfg, logger, nil)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	srv := mcpserver.New(catalog.NewEngine(snap), logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("mcp server error", zap.Error(err))
	}
}
