package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/citizen-services/internal/certificate"
	"github.com/iliyamo/citizen-services/internal/config"
	"github.com/iliyamo/citizen-services/internal/database"
	"github.com/iliyamo/citizen-services/internal/handler"
	"github.com/iliyamo/citizen-services/internal/logging"
	"github.com/iliyamo/citizen-services/internal/metrics"
	"github.com/iliyamo/citizen-services/internal/middleware"
	"github.com/iliyamo/citizen-services/internal/queue"
	"github.com/iliyamo/citizen-services/internal/repository"
	"github.com/iliyamo/citizen-services/internal/repository/memory"
	"github.com/iliyamo/citizen-services/internal/router"
	"github.com/iliyamo/citizen-services/internal/service"
)

type stores struct {
	users  service.UserRepository
	tokens service.TokenStore
	apps   service.ApplicationRepository
	certs  service.CertificateRepository
}

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Check{}
	st, db, err := openStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	if db != nil {
		defer db.Close()
		checks["mysql"] = db.PingContext
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	events := startEvents(ctx, config.LoadEventsConfig(), logger)

	auth := service.NewAuthService(st.users, st.tokens, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, logger)
	if cfg.SeedDemoUsers {
		n, err := auth.SeedDemoUsers(ctx)
		if err != nil {
			log.Fatalf("seed demo users: %v", err)
		}
		logger.Info("demo users seeded", "created", n)
	}

	apps := service.NewApplicationService(st.apps, st.certs,
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithEventPublisher(events),
		service.WithMapper(certificate.NewMapper(cfg.AcademicYear)),
	)

	e := newServer(logger)
	jwt := middleware.JWTAuth(cfg.JWTSecret)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	e.Use(limiter)

	router.RegisterRoutes(e, handler.NewHealthHandler(checks), reg)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, cfg.JWTSecret, logger), jwt)
	router.RegisterCitizen(e, handler.NewCitizenHandler(apps, logger), jwt)
	router.RegisterDepartment(e, handler.NewDepartmentHandler(apps, logger), jwt)
	router.RegisterPublic(e, handler.NewPublicHandler(apps, logger),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger))

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory stores; data is lost on restart")
		return stores{
			users:  memory.NewUserStore(),
			tokens: memory.NewTokenStore(),
			apps:   memory.NewApplicationStore(),
			certs:  memory.NewCertificateStore(),
		}, nil, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, nil, err
	}
	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	return stores{
		users:  repository.NewUserRepo(db),
		tokens: repository.NewTokenRepo(db),
		apps:   repository.NewApplicationRepo(db),
		certs:  repository.NewCertificateRepo(db),
	}, db, nil
}

// startEvents returns the publisher for workflow events and, when enabled,
// runs the audit consumer until ctx is done.
func startEvents(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) service.EventPublisher {
	if !cfg.Enabled {
		logger.Info("event publishing disabled")
		return queue.NopPublisher{}
	}
	if cfg.Consume {
		consumer := queue.NewConsumer(cfg.URL, cfg.Queue, cfg.LogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}
	return queue.NewPublisher(cfg.URL, cfg.Queue, logger)
}

func newServer(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	return e
}
