package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minigame_backend/internal/config"
	"minigame_backend/pkg/configwatcher"
	"minigame_backend/pkg/database"
	"minigame_backend/pkg/logger"
	"minigame_backend/pkg/monitoring"
	"minigame_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 汇集全部运行时依赖
type App struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Engine *gin.Engine

	tracerProvider *sdktrace.TracerProvider
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	app := &App{Cfg: cfg, DB: db}

	// Redis 不可用时降级运行，排行榜缓存自动关闭
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
	} else {
		app.Redis = rdb
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("minigame-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Warn("Failed to initialize tracer", zap.Error(err))
		} else {
			app.tracerProvider = tp
		}
	}

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	app.Engine = app.buildRouter()

	// 配置文件热更新：目前只重新加载并记录，连接类配置需要重启生效
	go configwatcher.WatchConfig("configs/config.yaml", func() {
		if _, err := config.LoadConfig("configs"); err != nil {
			logger.Log.Error("Config reload failed", zap.Error(err))
		}
	})

	return app, nil
}

// Run 启动 HTTP 服务并在收到信号后优雅退出
func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Cfg.Server.Port,
		Handler: a.Engine,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("port", a.Cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Tracer shutdown failed", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exited")
	return nil
}
