// Package messaging 校准事件的 Outbox 发布与 Kafka 中继。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/calibration/domain"
)

// OutboxMessage 事务性发件箱记录。
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primary_key"`
	EventID   string    `gorm:"type:varchar(36);index"`
	EventType string    `gorm:"type:varchar(100);index"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "calibration_outbox_messages"
}

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxEventPublisher 实现 EventPublisher 接口，使用 Outbox 模式
type OutboxEventPublisher struct {
	db *gorm.DB
}

// NewOutboxEventPublisher 创建新的 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db}
}

// PublishCalibrationCompleted 发布校准完成事件
func (p *OutboxEventPublisher) PublishCalibrationCompleted(ctx context.Context, event domain.CalibrationCompletedEvent) error {
	return p.publishEvent(ctx, domain.CalibrationCompletedEventType, event)
}

// PublishCalibrationFailed 发布校准失败事件
func (p *OutboxEventPublisher) PublishCalibrationFailed(ctx context.Context, event domain.CalibrationFailedEvent) error {
	return p.publishEvent(ctx, domain.CalibrationFailedEventType, event)
}

func (p *OutboxEventPublisher) publishEvent(ctx context.Context, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := OutboxMessage{
		ID:        uuid.NewString(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   string(payload),
		Status:    statusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return p.getDB(ctx).WithContext(ctx).Create(&message).Error
}

// getDB 优先使用 ctx 中下传的事务，与仓储共用同一次提交。
func (p *OutboxEventPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return p.db
}

// Sender 消息投递端口，由 pkg/mq 的 Kafka 生产者满足。
type Sender interface {
	SendMessage(ctx context.Context, topic, key string, value any) error
}

// OutboxRelay 周期性扫描发件箱并把待投递事件送往 Kafka。
type OutboxRelay struct {
	db       *gorm.DB
	sender   Sender
	topic    string
	batch    int
	interval time.Duration
}

// NewOutboxRelay 创建中继。
func NewOutboxRelay(db *gorm.DB, sender Sender, topic string) *OutboxRelay {
	return &OutboxRelay{
		db:       db,
		sender:   sender,
		topic:    topic,
		batch:    100,
		interval: time.Second,
	}
}

// Run 阻塞运行直到 ctx 取消。
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *OutboxRelay) drain(ctx context.Context) error {
	var messages []OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("created_at").
		Limit(r.batch).
		Find(&messages).Error; err != nil {
		return fmt.Errorf("load outbox messages: %w", err)
	}

	for _, message := range messages {
		if err := r.sender.SendMessage(ctx, r.topic, message.EventType, json.RawMessage(message.Payload)); err != nil {
			// 投递失败保持 pending，下一轮重试
			return nil
		}
		if err := r.db.WithContext(ctx).
			Model(&OutboxMessage{}).
			Where("id = ?", message.ID).
			Updates(map[string]any{"status": statusSent, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
	}
	return nil
}
