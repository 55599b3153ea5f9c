// Package domain 定价服务的领域模型：Heston 随机波动率模型的
// 蒙特卡洛模拟器、Carr-Madan 解析定价器与有限差分 Greeks 引擎。
package domain

import "time"

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// OptionContract 期权合约
// 定义期权的基本属性
type OptionContract struct {
	Symbol      string     // 标的资产代码
	Type        OptionType // 期权类型 (CALL/PUT)
	StrikePrice float64    // 行权价
	ExpiryDate  time.Time  // 到期日
}

// PricingModel 定价模型标识
type PricingModel string

const (
	ModelMonteCarlo   PricingModel = "HestonMonteCarlo"   // Heston 蒙特卡洛模拟
	ModelCarrMadan    PricingModel = "HestonCarrMadan"    // Heston 半解析（傅里叶）
	ModelBlackScholes PricingModel = "BlackScholes"       // Black-Scholes 闭式解
)
