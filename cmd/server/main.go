// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vetcard-ai/internal/assistant"
	"vetcard-ai/internal/config"
	"vetcard-ai/internal/pipeline"
	"vetcard-ai/internal/realtime"
	"vetcard-ai/internal/repository"
	"vetcard-ai/internal/router"
	"vetcard-ai/internal/service"
	"vetcard-ai/pkg/database"
	"vetcard-ai/pkg/kafka"
	"vetcard-ai/pkg/log"
	"vetcard-ai/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 后台任务共用的生命周期
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	// 3. 初始化 Redis 和 MySQL（均为可选）
	if cfg.Database.Redis.Addr != "" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		defer database.CloseRedis()
	}
	if cfg.Database.MySQL.DSN != "" {
		database.InitMySQL(cfg.Database.MySQL.DSN)
	}

	// 4. 初始化 Repository
	conversationRepo := newConversationRepository(bgCtx, cfg.Assistant)
	var exchangeRepo repository.ExchangeRepository
	if database.DB != nil {
		exchangeRepo = repository.NewExchangeRepository(database.DB)
	}

	// 5. 加载分类规则
	classifier := assistant.NewDefaultClassifier()
	if cfg.Assistant.RulesFile != "" {
		loaded, err := assistant.LoadRules(cfg.Assistant.RulesFile)
		if err != nil {
			log.Fatalf("加载规则文件失败: %v", err)
		}
		classifier = loaded
		log.Infof("已从 %s 加载 %d 条规则", cfg.Assistant.RulesFile, len(classifier.Rules()))
	}

	// 6. 组装问答事件的去向：Kafka -> 归档消费者，或直接归档
	opts := []service.AssistantOption{service.WithHistoryLimit(cfg.Assistant.HistoryLimit)}
	var producer *kafka.Producer
	switch {
	case cfg.Kafka.Brokers != "":
		producer = kafka.NewProducer(cfg.Kafka)
		opts = append(opts, service.WithRecorder(producer))
		if exchangeRepo != nil {
			go kafka.StartConsumer(bgCtx, cfg.Kafka, pipeline.NewArchiver(exchangeRepo))
		}
	case exchangeRepo != nil:
		opts = append(opts, service.WithRecorder(pipeline.NewArchiver(exchangeRepo)))
	default:
		log.Info("未配置 Kafka 和 MySQL，对话不做归档")
	}

	// 7. 初始化 Service
	assistantService := service.NewAssistantService(classifier, conversationRepo, opts...)
	exchangeService := service.NewExchangeService(exchangeRepo)
	sessions := token.NewSessionManager(cfg.Session.Secret, cfg.Session.ExpireHours)
	hub := realtime.NewHub()

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := router.New(router.Dependencies{
		ServiceName:      cfg.Server.ServiceName,
		CORSOrigins:      cfg.Server.CORSOrigins,
		SessionRequired:  cfg.Session.Required,
		SocketPath:       cfg.Socket.Path,
		SocketOrigins:    cfg.Socket.AllowOrigins,
		SocketQueueSize:  cfg.Socket.SendQueueSize,
		Sessions:         sessions,
		AssistantService: assistantService,
		ExchangeService:  exchangeService,
		Hub:              hub,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("%s 启动于 %s", cfg.Server.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止消费者和清理任务，再刷新生产者缓冲
	cancelBg()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("关闭 Kafka 生产者失败", err)
		}
	}
	log.Info("服务已优雅关闭")
}

// newConversationRepository 按配置选择会话上下文的存储。
func newConversationRepository(ctx context.Context, cfg config.AssistantConfig) repository.ConversationRepository {
	if cfg.Store == "redis" {
		if database.RDB == nil {
			log.Fatalf("assistant.store=redis 但未配置 database.redis.addr")
		}
		log.Info("会话上下文存储: redis")
		return repository.NewConversationRepository(database.RDB, cfg.ContextTTL, service.DefaultSessionID)
	}

	// 共享默认会话与进程同生命周期
	repo := repository.NewMemoryConversationRepository(cfg.ContextTTL, service.DefaultSessionID)
	if cfg.ContextTTL > 0 && cfg.SweepEvery > 0 {
		go repository.StartJanitor(ctx, repo, cfg.SweepEvery, func(removed int) {
			log.Debugw("清理过期会话", "removed", removed, "remaining", repo.Len())
		})
	}
	log.Info("会话上下文存储: memory")
	return repo
}
