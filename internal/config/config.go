// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Socket    SocketConfig    `mapstructure:"socket"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	ServiceName string   `mapstructure:"service_name"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。DSN 为空时不启用对话归档。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时不连接 Redis。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig 存储会话令牌相关的配置。
type SessionConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
	// Required 为 true 时，聊天接口必须携带 X-Session-Token。
	Required bool `mapstructure:"required"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时对话事件直接写入归档。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// AssistantConfig 存储对话助手相关的配置。
type AssistantConfig struct {
	// Store 取值 memory 或 redis
	Store        string        `mapstructure:"store"`
	HistoryLimit int           `mapstructure:"history_limit"`
	ContextTTL   time.Duration `mapstructure:"context_ttl"`
	SweepEvery   time.Duration `mapstructure:"sweep_every"`
	RulesFile    string        `mapstructure:"rules_file"`
}

// SocketConfig 存储实时通道相关的配置。
type SocketConfig struct {
	Path          string   `mapstructure:"path"`
	SendQueueSize int      `mapstructure:"send_queue_size"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}

// Load 读取配置文件并返回配置，环境变量 VETCARD_* 覆盖文件中的同名键。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VETCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.service_name", "VetCard AI Services")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("session.secret", "change-me")
	v.SetDefault("session.expire_hours", 24)
	v.SetDefault("session.required", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("kafka.topic", "vetcard.assistant.exchanges")
	v.SetDefault("kafka.group_id", "vetcard-ai-archiver")

	v.SetDefault("assistant.store", "memory")
	v.SetDefault("assistant.history_limit", 10)
	v.SetDefault("assistant.context_ttl", 24*time.Hour)
	v.SetDefault("assistant.sweep_every", 10*time.Minute)

	v.SetDefault("socket.path", "/socket")
	v.SetDefault("socket.send_queue_size", 16)
	v.SetDefault("socket.allow_origins", []string{"http://localhost:3000"})
}
