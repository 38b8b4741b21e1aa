package app

import (
	"time"

	"minigame_backend/internal/controller"
	"minigame_backend/internal/middleware"
	"minigame_backend/internal/model"
	"minigame_backend/internal/repository"
	"minigame_backend/internal/service"
	"minigame_backend/internal/util"
	"minigame_backend/pkg/monitoring"
	"minigame_backend/pkg/security"
	"minigame_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) buildRouter() *gin.Engine {
	cfg := a.Cfg

	userRepo := repository.NewUserRepository(a.DB)
	gameRepo := repository.NewGameRepository(a.DB)
	templateRepo := repository.NewGameTemplateRepository(a.DB)
	leaderboardRepo := repository.NewLeaderboardRepository(a.DB)

	storageService := service.NewStorageService(cfg)
	assetService := service.NewAssetService(storageService, cfg)
	authService := service.NewAuthService(userRepo, cfg)
	spellService := service.NewSpellTheWordService(
		gameRepo, templateRepo, leaderboardRepo, assetService, a.Redis, cfg)

	authController := controller.NewAuthController(authService)
	spellController := controller.NewSpellTheWordController(spellService)
	healthController := controller.NewHealthController(a.DB, a.Redis)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(security.CORS(cfg.CORS.AllowedOrigins))
	r.Use(security.Secure())
	r.Use(monitoring.MetricsMiddleware())
	if cfg.Tracing.Enabled {
		r.Use(tracing.GinMiddleware())
	}
	if cfg.RateLimit.MaxRequests > 0 {
		window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
		if window <= 0 {
			window = time.Minute
		}
		r.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	r.GET("/health", healthController.Health)
	r.GET("/metrics", monitoring.PrometheusHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储时直接暴露上传目录
	if cfg.Storage.Type == util.StorageLocal {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", middleware.AuthMiddleware(cfg), authController.Me)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleSuperAdmin))
	{
		admin.GET("/users", authController.ListUsers)
	}

	spell := api.Group("/games/spell-the-word")
	{
		authed := spell.Group("")
		authed.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(userRepo))
		{
			authed.POST("", spellController.Create)
			authed.GET("/:gameId", spellController.GetDetail)
			authed.PATCH("/:gameId", spellController.Update)
			authed.DELETE("/:gameId", spellController.Delete)
			authed.GET("/:gameId/play/private", spellController.PlayPrivate)
		}

		// 玩家侧接口：游客可用，带令牌则记名
		spell.GET("/:gameId/play/public", spellController.PlayPublic)
		spell.POST("/:gameId/check", spellController.Check)
		spell.POST("/:gameId/submit-score", middleware.TryAuthMiddleware(cfg), spellController.SubmitScore)
		spell.GET("/:gameId/leaderboard", spellController.Leaderboard)
	}

	return r
}
