// Package mysql 校准历史的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/calibration/domain"
)

type calibrationRepository struct {
	db *gorm.DB
}

// NewCalibrationRepository 创建并返回一个新的 calibrationRepository 实例。
func NewCalibrationRepository(db *gorm.DB) domain.CalibrationRepository {
	return &calibrationRepository{db: db}
}

// WithTx 在一个 gorm 事务内执行 fn，事务经 contextx 下传。
func (r *calibrationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *calibrationRepository) Save(ctx context.Context, record *domain.CalibrationRecord) error {
	return r.getDB(ctx).WithContext(ctx).Create(record).Error
}

func (r *calibrationRepository) GetLatest(ctx context.Context, symbol string) (*domain.CalibrationRecord, error) {
	var record domain.CalibrationRecord
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calibrated_at desc").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *calibrationRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.CalibrationRecord, error) {
	var records []*domain.CalibrationRecord
	if err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calibrated_at desc").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *calibrationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
