package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalibrationRecord 校准历史实体，落库保存每次拟合的参数与质量指标。
type CalibrationRecord struct {
	gorm.Model
	Symbol       string          `gorm:"column:symbol;type:varchar(20);index;not null" json:"symbol"`
	Spot         decimal.Decimal `gorm:"column:spot;type:decimal(20,8)" json:"spot"`
	RiskFreeRate decimal.Decimal `gorm:"column:risk_free_rate;type:decimal(20,8)" json:"risk_free_rate"`
	Kappa        decimal.Decimal `gorm:"column:kappa;type:decimal(20,8)" json:"kappa"`
	Theta        decimal.Decimal `gorm:"column:theta;type:decimal(20,8)" json:"theta"`
	Sigma        decimal.Decimal `gorm:"column:sigma;type:decimal(20,8)" json:"sigma"`
	Rho          decimal.Decimal `gorm:"column:rho;type:decimal(20,8)" json:"rho"`
	V0           decimal.Decimal `gorm:"column:v0;type:decimal(20,8)" json:"v0"`
	InitialError decimal.Decimal `gorm:"column:initial_error;type:decimal(20,8)" json:"initial_error"`
	FinalError   decimal.Decimal `gorm:"column:final_error;type:decimal(20,8)" json:"final_error"`
	Iterations   int             `gorm:"column:iterations" json:"iterations"`
	Converged    bool            `gorm:"column:converged" json:"converged"`
	Success      bool            `gorm:"column:success" json:"success"`
	OptionCount  int             `gorm:"column:option_count" json:"option_count"`
	CalibratedAt time.Time       `gorm:"column:calibrated_at;index" json:"calibrated_at"`
}

func (CalibrationRecord) TableName() string {
	return "calibration_records"
}
