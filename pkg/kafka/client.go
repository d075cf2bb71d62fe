// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"vetcard-ai/internal/config"
	"vetcard-ai/pkg/events"
	"vetcard-ai/pkg/log"

	"github.com/segmentio/kafka-go"
)

// maxAttempts 之后放弃处理并提交 offset。
const maxAttempts = 3

// retryBackoff 是第一次重试前的等待时间，之后每次翻倍。
var retryBackoff = 500 * time.Millisecond

// EventProcessor 处理从 Kafka 消费到的对话事件。
type EventProcessor interface {
	Process(ctx context.Context, event events.ExchangeEvent) error
}

// Producer 以异步方式把对话事件写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers(cfg.Brokers)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorf("写入 Kafka 失败: %d 条消息, err=%v", len(messages), err)
			}
		},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// Record 发送一个对话事件。异步模式下写入错误只会出现在 Completion 日志里。
func (p *Producer) Record(ctx context.Context, event events.ExchangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: event.Key(), Value: value})
}

// Close 刷新缓冲并关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

func brokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// StartConsumer 启动一个 Kafka 消费者处理对话事件，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor EventProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}
		handleMessage(ctx, r, m, processor)
	}
}

type committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// handleMessage 在提交 offset 前就地重试。消费组的 FetchMessage 不会重新投递
// 未提交的消息，后续消息的提交会越过它，所以重试不能交给 Kafka。
func handleMessage(ctx context.Context, r committer, m kafka.Message, processor EventProcessor) {
	var event events.ExchangeEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		commit(ctx, r, m)
		return
	}

	backoff := retryBackoff
	for attempt := 1; ; attempt++ {
		err := processor.Process(ctx, event)
		if err == nil {
			break
		}
		log.Errorf("处理对话事件失败: session=%s, offset=%d, attempt=%d, err=%v", event.SessionID, m.Offset, attempt, err)
		if attempt >= maxAttempts {
			log.Errorf("对话事件多次失败(>=%d)，提交 offset 终止重试: session=%s", maxAttempts, event.SessionID)
			break
		}

		select {
		case <-ctx.Done():
			// 不提交，重启后从该 offset 继续
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	commit(ctx, r, m)
}

func commit(ctx context.Context, r committer, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
