// Package domain 校准服务的领域模型：市场期权报价、
// Nelder-Mead 单纯形优化器与 Heston 参数校准器。
package domain

import pricing "github.com/wyfcoding/optionpricing/internal/pricing/domain"

// MarketOption 市场观测到的期权报价，校准的只读输入。
type MarketOption struct {
	Strike       float64            `json:"strike"`
	TimeToExpiry float64            `json:"time_to_expiry"` // 年
	Bid          float64            `json:"bid"`
	Ask          float64            `json:"ask"`
	Type         pricing.OptionType `json:"type"`
	Volume       int                `json:"volume"`
	OpenInterest int                `json:"open_interest"`
}

// Mid 买卖中间价。
func (o MarketOption) Mid() float64 {
	return (o.Bid + o.Ask) / 2
}

// Spread 买卖价差（美元）。
func (o MarketOption) Spread() float64 {
	return o.Ask - o.Bid
}

// SpreadPct 价差占中间价的百分比。
func (o MarketOption) SpreadPct() float64 {
	return o.Spread() / o.Mid() * 100
}

// IsLiquid 判断报价流动性是否足以参与校准。
func (o MarketOption) IsLiquid(minVolume int, maxSpreadPct float64) bool {
	return o.Volume >= minVolume && o.SpreadPct() <= maxSpreadPct
}

// LiquidityFilter 流动性过滤条件。
type LiquidityFilter struct {
	MinVolume       int     `json:"min_volume"`
	MaxSpreadPct    float64 `json:"max_spread_pct"`
	MinDaysToExpiry float64 `json:"min_days_to_expiry"`
	MaxDaysToExpiry float64 `json:"max_days_to_expiry"`
}

// DefaultLiquidityFilter 默认过滤条件：成交量≥50、价差≤10%、剩余 7~90 天。
func DefaultLiquidityFilter() LiquidityFilter {
	return LiquidityFilter{
		MinVolume:       50,
		MaxSpreadPct:    10.0,
		MinDaysToExpiry: 7.0,
		MaxDaysToExpiry: 90.0,
	}
}

// Apply 过滤出满足流动性条件的报价。
func (f LiquidityFilter) Apply(options []MarketOption) []MarketOption {
	liquid := make([]MarketOption, 0, len(options))
	for _, opt := range options {
		days := opt.TimeToExpiry * 365
		if opt.IsLiquid(f.MinVolume, f.MaxSpreadPct) &&
			days >= f.MinDaysToExpiry && days <= f.MaxDaysToExpiry {
			liquid = append(liquid, opt)
		}
	}
	return liquid
}
