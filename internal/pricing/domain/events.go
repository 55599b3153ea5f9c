package domain

import "time"

const (
	OptionPricedEventType        = "OptionPriced"
	GreeksCalculatedEventType    = "GreeksCalculated"
	SimulationCompletedEventType = "SimulationCompleted"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	Symbol          string       `json:"symbol"`
	OptionType      OptionType   `json:"option_type"`
	StrikePrice     float64      `json:"strike_price"`
	OptionPrice     float64      `json:"option_price"`
	UnderlyingPrice float64      `json:"underlying_price"`
	TimeToMaturity  float64      `json:"time_to_maturity"`
	RiskFreeRate    float64      `json:"risk_free_rate"`
	PricingModel    PricingModel `json:"pricing_model"`
	CalculatedAt    int64        `json:"calculated_at"`
	OccurredOn      time.Time    `json:"occurred_on"`
}

// GreeksCalculatedEvent 希腊字母计算完成事件
type GreeksCalculatedEvent struct {
	Symbol          string       `json:"symbol"`
	OptionType      OptionType   `json:"option_type"`
	StrikePrice     float64      `json:"strike_price"`
	UnderlyingPrice float64      `json:"underlying_price"`
	Delta           float64      `json:"delta"`
	Gamma           float64      `json:"gamma"`
	Vega            float64      `json:"vega"`
	Theta           float64      `json:"theta"`
	Rho             float64      `json:"rho"`
	PricingModel    PricingModel `json:"pricing_model"`
	CalculatedAt    int64        `json:"calculated_at"`
	OccurredOn      time.Time    `json:"occurred_on"`
}

// SimulationCompletedEvent 蒙特卡洛模拟完成事件
type SimulationCompletedEvent struct {
	Symbol        string    `json:"symbol"`
	Paths         int       `json:"paths"`
	Steps         int       `json:"steps"`
	Seed          uint64    `json:"seed"`
	Antithetic    bool      `json:"antithetic"`
	MeanFinal     float64   `json:"mean_final"`
	StdDevFinal   float64   `json:"std_dev_final"`
	FellerHolds   bool      `json:"feller_holds"`
	CompletedAt   int64     `json:"completed_at"`
	OccurredOn    time.Time `json:"occurred_on"`
}
