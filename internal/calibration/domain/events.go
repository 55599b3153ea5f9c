package domain

import (
	"context"
	"time"
)

const (
	CalibrationCompletedEventType = "CalibrationCompleted"
	CalibrationFailedEventType    = "CalibrationFailed"
)

// CalibrationCompletedEvent 校准完成事件
type CalibrationCompletedEvent struct {
	Symbol       string    `json:"symbol"`
	Kappa        float64   `json:"kappa"`
	Theta        float64   `json:"theta"`
	Sigma        float64   `json:"sigma"`
	Rho          float64   `json:"rho"`
	V0           float64   `json:"v0"`
	InitialError float64   `json:"initial_error"`
	FinalError   float64   `json:"final_error"`
	Iterations   int       `json:"iterations"`
	Converged    bool      `json:"converged"`
	Success      bool      `json:"success"`
	OptionCount  int       `json:"option_count"`
	CompletedAt  int64     `json:"completed_at"`
	OccurredOn   time.Time `json:"occurred_on"`
}

// CalibrationFailedEvent 校准失败事件
type CalibrationFailedEvent struct {
	Symbol     string    `json:"symbol"`
	Reason     string    `json:"reason"`
	OccurredAt int64     `json:"occurred_at"`
	OccurredOn time.Time `json:"occurred_on"`
}

// EventPublisher 事件发布者接口。实现走 Outbox 模式：
// 事件写入随 ctx 下传的数据库事务，与业务数据一起提交。
type EventPublisher interface {
	// PublishCalibrationCompleted 发布校准完成事件
	PublishCalibrationCompleted(ctx context.Context, event CalibrationCompletedEvent) error

	// PublishCalibrationFailed 发布校准失败事件
	PublishCalibrationFailed(ctx context.Context, event CalibrationFailedEvent) error
}
