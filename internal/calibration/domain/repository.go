package domain

import "context"

// CalibrationRepository 校准历史仓储接口
type CalibrationRepository interface {
	Save(ctx context.Context, record *CalibrationRecord) error
	GetLatest(ctx context.Context, symbol string) (*CalibrationRecord, error)
	GetHistory(ctx context.Context, symbol string, limit int) ([]*CalibrationRecord, error)

	// WithTx 在单个事务中执行 fn，事务经 context 下传给仓储与发件箱。
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
