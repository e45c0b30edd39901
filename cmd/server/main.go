package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/janisto/echo-tickets/internal/http/docs"
	"github.com/janisto/echo-tickets/internal/http/health"
	"github.com/janisto/echo-tickets/internal/http/v1/routes"
	"github.com/janisto/echo-tickets/internal/platform/config"
	"github.com/janisto/echo-tickets/internal/platform/firebase"
	applog "github.com/janisto/echo-tickets/internal/platform/logging"
	"github.com/janisto/echo-tickets/internal/platform/metrics"
	appmiddleware "github.com/janisto/echo-tickets/internal/platform/middleware"
	"github.com/janisto/echo-tickets/internal/platform/respond"
	"github.com/janisto/echo-tickets/internal/platform/validate"
	ticketsvc "github.com/janisto/echo-tickets/internal/service/ticket"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "invalid configuration", err)
	}
	if cfg.LogLevel != "" {
		level, err := applog.ParseLevel(cfg.LogLevel)
		if err != nil {
			applog.LogFatal(ctx, "invalid log level", err)
		}
		applog.SetLevel(level)
	}

	m, err := metrics.New(nil)
	if err != nil {
		applog.LogFatal(ctx, "metrics init failed", err)
	}

	store, closeStore, err := openStore(ctx, cfg, m)
	if err != nil {
		applog.LogFatal(ctx, "ticket store init failed", err, slog.String("driver", cfg.Store.Driver))
	}
	defer closeStore()

	lister := ticketsvc.NewLister(store, ticketsvc.Options{
		Table:    cfg.Store.Table,
		MaxLimit: cfg.Store.MaxLimit,
		ProbeTTL: cfg.Store.ProbeTTL,
		Observer: m,
	})
	if err := lister.Ready(ctx); err != nil {
		// The list path tolerates a failed probe; readiness reports it.
		applog.LogWarn(ctx, "ticket store not ready at startup",
			slog.String("table", cfg.Store.Table), slog.Any("error", err))
	}

	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = respond.NewHTTPErrorHandler()
	e.IPExtractor = echo.ExtractIPFromRealIPHeader()
	e.Logger = applog.Logger()

	var varyExtra []string
	if len(cfg.CORSAllowedOrigins) > 0 {
		varyExtra = append(varyExtra, "Origin")
	}

	e.Use(
		appmiddleware.Security("/api-docs"),
		appmiddleware.Vary(varyExtra...),
		appmiddleware.CORS(cfg.CORSAllowedOrigins...),
		appmiddleware.RequestID(),
		middleware.BodyLimit(1<<20),
		applog.RequestLogger(),
		applog.AccessLogger(),
		m.Middleware(),
		respond.Recoverer(),
	)

	e.GET("/health", health.Handler)
	e.GET("/health/ready", health.Readiness(lister))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	docs.Register(e, cfg.DocsSpecPath)

	v1 := e.Group("/v1")
	routes.Register(v1, lister)

	applog.LogInfo(ctx, "server starting",
		slog.String("addr", cfg.Addr()),
		slog.String("store", cfg.Store.Driver),
		slog.String("table", cfg.Store.Table),
		slog.String("version", Version))

	sc := echo.StartConfig{
		Address:         cfg.Addr(),
		GracefulTimeout: 10 * time.Second,
		BeforeServeFunc: func(s *http.Server) error {
			s.ReadTimeout = 5 * time.Second
			s.ReadHeaderTimeout = 2 * time.Second
			s.WriteTimeout = 10 * time.Second
			s.IdleTimeout = 60 * time.Second
			s.MaxHeaderBytes = 64 << 10
			return nil
		},
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sc.Start(sigCtx, e); err != nil {
		log.Fatal(err)
	}

	applog.LogInfo(ctx, "server exited")
}

// openStore builds the configured ticket store. The returned func releases
// its connections.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (ticketsvc.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := ticketsvc.OpenPostgres(ctx, cfg.Store.URL, cfg.Store.Key, ticketsvc.PostgresOptions{
			MaxConns:     int32(cfg.Store.MaxConns),
			QueryTimeout: cfg.Store.QueryTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := m.RegisterPool(pg.Pool); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case config.DriverFirestore:
		if cfg.IsDevelopment() && cfg.FirebaseProjectID == config.DemoProjectID {
			applog.LogWarn(ctx, "using demo-test-project for local development")
		}
		clients, err := firebase.InitializeClients(ctx, firebase.Config{ProjectID: cfg.FirebaseProjectID})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := clients.Close(); err != nil {
				applog.LogError(ctx, "firebase close error", err)
			}
		}
		return ticketsvc.NewFirestoreStore(clients.Firestore), closeFn, nil

	case config.DriverMemory:
		mem := ticketsvc.NewMemoryStore()
		mem.CreateTable(cfg.Store.Table)
		if cfg.Store.Seed > 0 {
			mem.Insert(cfg.Store.Table, ticketsvc.SampleRecords(cfg.Store.Seed, time.Now().UTC())...)
			applog.LogInfo(ctx, "seeded memory store", slog.Int("rows", cfg.Store.Seed))
		}
		return mem, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
