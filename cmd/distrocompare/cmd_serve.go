package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/catalog"
	"github.com/HerbHall/distrocompare/internal/config"
	"github.com/HerbHall/distrocompare/internal/docs"
	"github.com/HerbHall/distrocompare/internal/loader"
	"github.com/HerbHall/distrocompare/internal/metrics"
	"github.com/HerbHall/distrocompare/internal/server"
	"github.com/HerbHall/distrocompare/internal/session"
	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

// catalogStatus is the health view of the loaded catalog.
type catalogStatus struct {
	report   *loader.Report
	loadedAt time.Time
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("DistroCompare server starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	snap, report, err := loadCatalog(ctx, cfg, logger, m)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	m.SetCatalogRecords(len(snap.Records))

	engine := catalog.NewEngine(snap, catalog.WithObserver(m))

	var status atomic.Pointer[catalogStatus]
	status.Store(&catalogStatus{report: report, loadedAt: snap.LoadedAt})
	if spec := cfg.GetString("catalog.refresh"); spec != "" {
		refresher, err := loader.NewRefresher(spec,
			func(ctx context.Context) (*pkgcatalog.Snapshot, *loader.Report, error) {
				return loadCatalog(ctx, cfg, logger, m)
			},
			func(s *pkgcatalog.Snapshot, rep *loader.Report) {
				engine.SetSnapshot(s)
				m.SetCatalogRecords(len(s.Records))
				status.Store(&catalogStatus{report: rep, loadedAt: s.LoadedAt})
			},
			cfg.GetDuration("catalog.fetch_timeout"), logger,
		)
		if err != nil {
			logger.Fatal("failed to schedule catalog refresh", zap.Error(err))
		}
		refresher.Start()
		defer refresher.Stop()
	}

	manager := session.NewManager(engine, logger,
		session.WithDebounce(cfg.GetDuration("session.debounce")),
		session.WithIdleTimeout(cfg.GetDuration("session.idle_timeout")),
		session.WithCountHook(m.SetActiveSessions),
	)
	go manager.Run(ctx)

	guideSrc, guideName, err := guideSource(cfg)
	if err != nil {
		logger.Fatal("invalid user guide location", zap.Error(err))
	}
	guide := docs.NewGuide(guideSrc, guideName, logger)

	registrars := []server.RouteRegistrar{
		catalog.NewHandler(engine, logger),
		session.NewHandler(manager, engine, logger),
		docs.NewHandler(guide),
		m,
	}
	addr := net.JoinHostPort(cfg.GetString("server.host"), strconv.Itoa(cfg.GetInt("server.port")))
	srv := server.New(addr, logger, registrars,
		server.WithMiddleware(server.RequestID, server.Observe(m, logger)),
		server.WithHealth(func() map[string]any {
			st := status.Load()
			return map[string]any{
				"catalog": map[string]any{
					"source":    st.report.Source,
					"records":   st.report.Loaded,
					"requested": st.report.Requested,
					"failures":  len(st.report.Failures),
					"loaded_at": st.loadedAt,
				},
				"sessions": manager.Len(),
			}
		}),
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("DistroCompare server ready",
		zap.String("addr", addr),
		zap.Int("records", len(snap.Records)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	// Stopping the manager closes every session and its streams.
	cancel()

	logger.Info("DistroCompare server stopped")
}
