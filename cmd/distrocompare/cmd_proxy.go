package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/config"
	"github.com/HerbHall/distrocompare/internal/metrics"
	"github.com/HerbHall/distrocompare/internal/proxy"
	"github.com/HerbHall/distrocompare/internal/server"
)

func runProxy(args []string) {
	fs := flag.NewFlagSet("proxy", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	host := fs.String("host", "", "listen host (default from proxy.host)")
	port := fs.Int("port", 0, "listen port (default from proxy.port)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if *host == "" {
		*host = cfg.GetString("proxy.host")
	}
	if *port == 0 {
		*port = cfg.GetInt("proxy.port")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	relay := proxy.New(logger, proxy.WithLimiter(
		proxy.NewLimiter(cfg.GetFloat64("proxy.rate_limit"), cfg.GetInt("proxy.burst")),
	))
	go relay.Run(ctx)

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	srv := server.New(addr, logger, []server.RouteRegistrar{m},
		server.WithMiddleware(server.RequestID, server.Observe(m, logger), relay.Middleware),
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("proxy error", zap.Error(err))
		}
	}()
	logger.Info("CORS relay running", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("proxy shutdown error", zap.Error(err))
	}
}
