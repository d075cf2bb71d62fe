package database

import (
	"context"
	"time"
	"vetcard-ai/pkg/log"

	"github.com/go-redis/redis/v8"
)

// RDB 为空表示未配置 Redis。
var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Infof("Redis client connected successfully: %s", addr)
}

// CloseRedis 关闭 Redis 连接。
func CloseRedis() {
	if RDB == nil {
		return
	}
	if err := RDB.Close(); err != nil {
		log.Error("failed to close redis", err)
	}
}
