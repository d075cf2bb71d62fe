package database

import (
	"time"
	"vetcard-ai/internal/model"
	"vetcard-ai/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 为空表示未启用对话归档。
var DB *gorm.DB

// InitMySQL 初始化 MySQL 数据库连接并迁移归档表
func InitMySQL(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect database", err)
	}

	// 配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := DB.AutoMigrate(&model.Exchange{}); err != nil {
		log.Fatal("failed to migrate exchange archive", err)
	}

	log.Info("MySQL database connected successfully")
}
