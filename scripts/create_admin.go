// 创建超级管理员账号脚本
//
// 部署后数据库里没有任何 super_admin，用该脚本创建第一个。
// 已存在同邮箱账号时只提升角色，不重置密码。
//
// 用法: go run scripts/create_admin.go -email admin@example.com -password <密码> -name Admin
package main

import (
	"flag"
	"log"
	"os"

	"minigame_backend/internal/config"
	"minigame_backend/internal/model"
	"minigame_backend/pkg/database"
	"minigame_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "", "管理员邮箱")
	password := flag.String("password", "", "管理员密码")
	name := flag.String("name", "Admin", "显示名称")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("用法: go run scripts/create_admin.go -email <邮箱> -password <密码> [-name <名称>]")
	}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var existing model.User
	err = db.Where("email = ?", *email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role == model.RoleSuperAdmin {
			log.Printf("账号 %s 已是超级管理员", *email)
			return
		}
		if err := db.Model(&existing).Update("role", model.RoleSuperAdmin).Error; err != nil {
			log.Fatalf("提升角色失败: %v", err)
		}
		log.Printf("已将 %s 提升为超级管理员", *email)
	case err == gorm.ErrRecordNotFound:
		hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("密码加密失败: %v", err)
		}
		admin := model.User{
			Name:     *name,
			Email:    *email,
			Password: string(hashed),
			Role:     model.RoleSuperAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("创建账号失败: %v", err)
		}
		log.Printf("超级管理员 %s 创建完成", *email)
	default:
		log.Fatalf("查询账号失败: %v", err)
	}
}
