package application

import (
	"time"

	"github.com/wyfcoding/optionpricing/internal/calibration/domain"
)

// MarketOptionDTO 外部输入的期权报价。
type MarketOptionDTO struct {
	Strike       float64 `json:"strike" binding:"required"`
	TimeToExpiry float64 `json:"time_to_expiry" binding:"required"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Type         string  `json:"type"`
	Volume       int     `json:"volume"`
	OpenInterest int     `json:"open_interest"`
}

// CalibrateCommand 校准命令。
// InitialGuess 缺省时以历史波动率生成初始参数；
// SkipFilter 跳过流动性过滤（合成数据没有真实成交量）。
type CalibrateCommand struct {
	Symbol        string              `json:"symbol" binding:"required"`
	Spot          float64             `json:"spot" binding:"required"`
	RiskFreeRate  float64             `json:"risk_free_rate"`
	HistoricalVol float64             `json:"historical_vol"`
	Options       []MarketOptionDTO   `json:"options"`
	InitialGuess  *domain.CalibParams `json:"initial_guess,omitempty"`
	SkipFilter    bool                `json:"skip_filter,omitempty"`
}

// DryRunCommand 合成链演练命令：用已知参数生成报价再校准，
// 验证整条校准链路的自洽性。
type DryRunCommand struct {
	Symbol       string             `json:"symbol" binding:"required"`
	Spot         float64            `json:"spot" binding:"required"`
	RiskFreeRate float64            `json:"risk_free_rate"`
	TrueParams   domain.CalibParams `json:"true_params"`
	Strikes      []float64          `json:"strikes"`
	Maturities   []float64          `json:"maturities"`
}

// CalibrationDTO 校准结果。
type CalibrationDTO struct {
	Symbol       string             `json:"symbol"`
	Params       domain.CalibParams `json:"params"`
	FellerHolds  bool               `json:"feller_holds"`
	InitialError float64            `json:"initial_error"`
	FinalError   float64            `json:"final_error"`
	Iterations   int                `json:"iterations"`
	Converged    bool               `json:"converged"`
	Success      bool               `json:"success"`
	OptionsUsed  int                `json:"options_used"`
	CalibratedAt time.Time          `json:"calibrated_at"`
}
