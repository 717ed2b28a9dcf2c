package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/authgo/backend/api/handler"
	"github.com/authgo/backend/internal/config"
	"github.com/authgo/backend/internal/infrastructure/auditlog"
	"github.com/authgo/backend/internal/infrastructure/monitor"
	pgInfra "github.com/authgo/backend/internal/infrastructure/postgres"
	redisInfra "github.com/authgo/backend/internal/infrastructure/redis"
	"github.com/authgo/backend/internal/middleware"
	"github.com/authgo/backend/internal/router"
	"github.com/authgo/backend/internal/services"
	"github.com/authgo/backend/internal/services/lifecycle"
	"github.com/authgo/backend/pkg/httpcontext"
	"github.com/authgo/backend/pkg/logger"
	"github.com/authgo/backend/pkg/password"
	"github.com/authgo/backend/pkg/token"
	"github.com/authgo/backend/repository/postgres"
	redisRepo "github.com/authgo/backend/repository/redis"
	authUC "github.com/authgo/backend/usecase/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journal, err := auditlog.Open(cfg.Audit.Path, "auth_events")
	if err != nil {
		zapLogger.Fatal("failed to open audit journal", zap.Error(err))
	}
	manager.Register("audit_journal", func(ctx context.Context) error {
		return journal.Close()
	})

	mon := monitor.New(pool, redisClient, journal, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL)

	auditFlusher := services.NewAuditFlusher(
		journal,
		mon,
		eventRepo,
		zapLogger,
		services.FlusherConfig{
			Interval:   cfg.Audit.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Audit.MaxRetry,
		},
	)
	auditFlusher.Start()
	manager.Register("audit_flusher", func(ctx context.Context) error {
		auditFlusher.Stop(ctx)
		return nil
	})

	issuer := token.NewIssuer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.TTL)
	hasher := password.NewHasher(cfg.Auth.BcryptCost)

	authUseCase := authUC.New(
		userRepo,
		sessionRepo,
		hasher,
		issuer,
		services.NewAuditBridge(auditFlusher),
		zapLogger,
	)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(issuer, zapLogger)
	handler := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
