package domain

import "context"

// PricingRepository 定价历史仓储接口
type PricingRepository interface {
	Save(ctx context.Context, result *PricingResult) error
	GetLatest(ctx context.Context, symbol string) (*PricingResult, error)
	GetHistory(ctx context.Context, symbol string, limit int) ([]*PricingResult, error)

	// WithTx 在单个事务中执行 fn，事务经 context 下传给仓储与发件箱。
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
