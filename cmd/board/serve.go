package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/agileboard/internal/board/handler"
	"github.com/bitfantasy/agileboard/internal/board/realtime"
	"github.com/bitfantasy/agileboard/internal/board/repository"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/bitfantasy/agileboard/internal/board/sse"
	"github.com/bitfantasy/agileboard/internal/config"
	"github.com/bitfantasy/agileboard/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting agileboard service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.Bool("configured", cfg.Configured()),
	)

	hub := sse.NewHub(zapLogger)
	backend, closeBackend, err := buildBackend(cfg, zapLogger)
	if err != nil {
		return err
	}
	defer closeBackend()

	board := service.NewBoard(backend, service.Options{
		Configured: cfg.Configured(),
		Alerter:    hub,
		Listener:   hub,
	}, zapLogger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
	if err := board.Start(startCtx); err != nil {
		zapLogger.Error("Realtime subscription failed, continuing without it", zap.Error(err))
	}
	cancelStart()
	defer board.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/sse"})))

	handler.RegisterRoutes(router, handler.NewHandlers(board, hub, zapLogger), cfg.JWT.Secret)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
	return nil
}

// buildBackend wires the stores, file storage and change feed. An
// unconfigured board gets an empty backend and never touches it.
func buildBackend(cfg *config.Config, zapLogger *zap.Logger) (service.Backend, func(), error) {
	noop := func() {}
	if !cfg.Configured() {
		return service.Backend{}, noop, nil
	}

	db, err := initDatabase(cfg.Database, gormLogLevel(cfg.Log.Level))
	if err != nil {
		return service.Backend{}, noop, err
	}
	repos := repository.NewRepositories(db)
	backend := service.Backend{
		Users:     repos.Profiles,
		Sprints:   repos.Sprints,
		WorkItems: repos.WorkItems,
	}

	files, err := initStorage(cfg.MinIO, zapLogger)
	if err != nil {
		zapLogger.Warn("File storage unavailable", zap.Error(err))
	} else if files != nil {
		backend.Files = files
	}

	closers := []func(){}
	switch cfg.Realtime.Driver {
	case config.RealtimePostgres:
		dsn, _ := cfg.Database.DSN()
		backend.Feed = realtime.NewPostgresFeed(dsn, cfg.Realtime.Channel, zapLogger)
	case config.RealtimeRedis:
		rdb := initRedis(cfg.Redis)
		if err := realtime.RegisterPublisher(db, rdb, cfg.Realtime.Channel, zapLogger); err != nil {
			rdb.Close()
			return service.Backend{}, noop, fmt.Errorf("register change publisher: %w", err)
		}
		backend.Feed = realtime.NewRedisFeed(rdb, cfg.Realtime.Channel, zapLogger)
		closers = append(closers, func() { rdb.Close() })
	}

	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return backend, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
