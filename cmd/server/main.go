package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rail-portal/internal/config"
	apphttp "rail-portal/internal/http"
	"rail-portal/internal/logging"
	"rail-portal/internal/railapi"
	"rail-portal/internal/repository"
	"rail-portal/internal/repository/postgres"
	"rail-portal/internal/repository/sqlite"
	"rail-portal/internal/service"
)

func main() {
	bootLogger := logrus.New()
	bootLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		bootLogger.Fatalf("setup logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, userRepo, err := openUserRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	userService := service.NewUserService(userRepo)
	railService := service.NewRailService(railapi.NewClient(railapi.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Host:    cfg.Upstream.Host,
		Timeout: cfg.Upstream.Timeout,
	}))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, railService, logger, cfg.Server.AllowedOrigin)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func openUserRepository(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*sql.DB, repository.UserRepository, error) {
	driver, dsn, err := config.ParseDatabaseURL(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	switch driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres user store")
		return db, postgres.NewUserRepository(db), nil
	case config.DriverSQLite:
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite user store at %s", dsn)
		return db, sqlite.NewUserRepository(db), nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
}
