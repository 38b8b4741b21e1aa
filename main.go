package main

import (
	"flag"
	"log"

	"minigame_backend/internal/app"
	"minigame_backend/internal/config"

	_ "minigame_backend/docs"
)

// @title Minigame Backend API
// @version 1.0
// @description 迷你游戏内容构建与评测服务：游戏创建、资源管理、试玩、判题与排行榜
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	forceMigrate := flag.Bool("migrate", false, "force database migration on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly
	cfg.ForceMigrate = *forceMigrate

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if cfg.MigrateOnly {
		log.Println("Migration completed, exiting")
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
