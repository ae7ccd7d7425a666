package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	myPostgresRepo "github.com/feelflow/auth-service/internal/adapters/db/postgres"
	httptransport "github.com/feelflow/auth-service/internal/adapters/transport/http"
	"github.com/feelflow/auth-service/internal/adapters/transport/http/middleware"
	"github.com/feelflow/auth-service/internal/app/auth/jwt"
	"github.com/feelflow/auth-service/internal/app/auth/password"
	appsvc "github.com/feelflow/auth-service/internal/app/auth/service"
	"github.com/feelflow/auth-service/internal/infra/config"
	lg "github.com/feelflow/auth-service/internal/infra/log"
	"github.com/feelflow/auth-service/internal/infra/migrate"
	"github.com/feelflow/auth-service/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := myPostgresRepo.Open(cfg.DatabaseURL)
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	primary, err := password.New(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		zapLog.Fatal("password hasher", zap.Error(err))
	}
	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	svc := appsvc.New(userRepo, jwtUtil, password.NewAuto(primary, cfg.BcryptCost), validator.New())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Handler:  httptransport.NewHandler(svc, userRepo, zapLog),
		Logger:   zapLog,
		Config:   cfg,
		Metrics:  middleware.NewMetrics(registry),
		Registry: registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg.HTTPAddress, router, cfg.ShutdownTimeout, zapLog)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
		return
	}
	zapLog.Info("shutdown complete")
}
