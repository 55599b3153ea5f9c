package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// HestonParamsDTO 显式指定的模型参数。缺省时由历史波动率生成默认参数。
type HestonParamsDTO struct {
	V0    float64 `json:"v0"`
	Kappa float64 `json:"kappa"`
	Theta float64 `json:"theta"`
	Sigma float64 `json:"sigma"`
	Rho   float64 `json:"rho"`
}

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol         string           `json:"symbol"`
	OptionType     string           `json:"option_type"`
	Model          string           `json:"model"` // HestonCarrMadan / HestonMonteCarlo / BlackScholes
	Strike         float64          `json:"strike"`
	Spot           float64          `json:"spot"`
	TimeToMaturity float64          `json:"time_to_maturity"`
	RiskFreeRate   float64          `json:"risk_free_rate"`
	HistoricalVol  float64          `json:"historical_vol"`
	Params         *HestonParamsDTO `json:"params,omitempty"`
	Paths          int              `json:"paths,omitempty"`
	Steps          int              `json:"steps,omitempty"`
	Seed           uint64           `json:"seed,omitempty"`
	Antithetic     bool             `json:"antithetic,omitempty"`
}

// SimulateCommand 蒙特卡洛路径模拟命令
type SimulateCommand struct {
	Symbol         string           `json:"symbol"`
	Spot           float64          `json:"spot"`
	TimeToMaturity float64          `json:"time_to_maturity"`
	RiskFreeRate   float64          `json:"risk_free_rate"`
	HistoricalVol  float64          `json:"historical_vol"`
	Params         *HestonParamsDTO `json:"params,omitempty"`
	Paths          int              `json:"paths"`
	Steps          int              `json:"steps"`
	Seed           uint64           `json:"seed"`
	Antithetic     bool             `json:"antithetic"`
	Bins           int              `json:"bins"`
}

// PriceDTO 定价结果
type PriceDTO struct {
	Symbol       string          `json:"symbol"`
	OptionType   string          `json:"option_type"`
	Model        string          `json:"model"`
	Strike       decimal.Decimal `json:"strike"`
	Spot         decimal.Decimal `json:"spot"`
	Price        decimal.Decimal `json:"price"`
	Moneyness    string          `json:"moneyness"`
	FellerHolds  bool            `json:"feller_holds"`
	FellerRatio  float64         `json:"feller_ratio"`
	CalculatedAt time.Time       `json:"calculated_at"`
}

// GreeksDTO 希腊字母
type GreeksDTO struct {
	Symbol       string          `json:"symbol"`
	OptionType   string          `json:"option_type"`
	Model        string          `json:"model"`
	Strike       decimal.Decimal `json:"strike"`
	Price        decimal.Decimal `json:"price"`
	Delta        float64         `json:"delta"`
	Gamma        float64         `json:"gamma"`
	Vega         float64         `json:"vega"`
	Theta        float64         `json:"theta"`
	Rho          float64         `json:"rho"`
	CalculatedAt time.Time       `json:"calculated_at"`
}

// DistributionDTO 终端价格分布
type DistributionDTO struct {
	Symbol   string    `json:"symbol"`
	Paths    int       `json:"paths"`
	Steps    int       `json:"steps"`
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	StdDev   float64   `json:"std_dev"`
	BinEdges []float64 `json:"bin_edges"`
	Counts   []int     `json:"counts"`
}
