package database

import (
	"fmt"
	"log"

	"minigame_backend/internal/config"
	"minigame_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// 排行榜的游客桶用 user_id=0 占位，不能让迁移生成指向 users 的外键
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.GameTemplate{},
		&model.Game{},
		&model.LeaderboardEntry{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 内置游戏模板
	var count int64
	db.Model(&model.GameTemplate{}).Count(&count)
	if count == 0 {
		defaultTemplates := []model.GameTemplate{
			{Slug: model.SpellTheWordSlug, Name: "Spell the Word"},
			{Slug: model.QuizSlug, Name: "Quiz"},
			{Slug: model.PairOrNoPairSlug, Name: "Pair or No Pair"},
		}
		for _, t := range defaultTemplates {
			db.Create(&t)
		}
	}

	return db, nil
}
