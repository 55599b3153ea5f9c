// Package mysql 定价历史的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

type pricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository 创建并返回一个新的 pricingRepository 实例。
func NewPricingRepository(db *gorm.DB) domain.PricingRepository {
	return &pricingRepository{db: db}
}

// WithTx 在一个 gorm 事务内执行 fn，事务经 contextx 下传。
func (r *pricingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *pricingRepository) Save(ctx context.Context, result *domain.PricingResult) error {
	return r.getDB(ctx).WithContext(ctx).Create(result).Error
}

func (r *pricingRepository) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	var result domain.PricingResult
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pricingRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	var results []*domain.PricingResult
	if err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pricingRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
