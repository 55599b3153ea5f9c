package domain

import "context"

// EventPublisher 事件发布者接口。实现走 Outbox 模式：
// 事件写入随 ctx 下传的数据库事务，与业务数据一起提交。
type EventPublisher interface {
	// PublishOptionPriced 发布期权定价完成事件
	PublishOptionPriced(ctx context.Context, event OptionPricedEvent) error

	// PublishGreeksCalculated 发布希腊字母计算完成事件
	PublishGreeksCalculated(ctx context.Context, event GreeksCalculatedEvent) error

	// PublishSimulationCompleted 发布模拟完成事件
	PublishSimulationCompleted(ctx context.Context, event SimulationCompletedEvent) error
}
