package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingResult 定价结果实体，落库保存定价历史。
// 数值核心全程使用 float64，入库时在应用层转为 decimal。
type PricingResult struct {
	gorm.Model
	Symbol          string          `gorm:"column:symbol;type:varchar(20);index;not null" json:"symbol"`
	OptionType      OptionType      `gorm:"column:option_type;type:varchar(8)" json:"option_type"`
	StrikePrice     decimal.Decimal `gorm:"column:strike_price;type:decimal(20,8)" json:"strike_price"`
	OptionPrice     decimal.Decimal `gorm:"column:option_price;type:decimal(20,8)" json:"option_price"`
	UnderlyingPrice decimal.Decimal `gorm:"column:underlying_price;type:decimal(20,8)" json:"underlying_price"`
	Delta           decimal.Decimal `gorm:"column:delta;type:decimal(20,8)" json:"delta"`
	Gamma           decimal.Decimal `gorm:"column:gamma;type:decimal(20,8)" json:"gamma"`
	Theta           decimal.Decimal `gorm:"column:theta;type:decimal(20,8)" json:"theta"`
	Vega            decimal.Decimal `gorm:"column:vega;type:decimal(20,8)" json:"vega"`
	Rho             decimal.Decimal `gorm:"column:rho;type:decimal(20,8)" json:"rho"`
	PricingModel    PricingModel    `gorm:"column:pricing_model;type:varchar(32)" json:"pricing_model"`
	CalculatedAt    time.Time       `gorm:"column:calculated_at;index" json:"calculated_at"`
}

func (PricingResult) TableName() string {
	return "pricing_results"
}
