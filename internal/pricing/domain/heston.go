package domain

import (
	"fmt"
	"strings"

	"github.com/wyfcoding/pkg/xerrors"
)

// HestonParams Heston 随机波动率模型参数。
// 变量命名沿用文献记号：kappa 均值回复速度、theta 长期方差、
// sigma 波动率的波动率、rho 资产与方差布朗运动的相关系数。
type HestonParams struct {
	S0    float64 // 标的初始价格
	V0    float64 // 初始方差
	Kappa float64 // 均值回复速度
	Theta float64 // 长期方差
	Sigma float64 // 波动率的波动率 (vol-of-vol)
	Rho   float64 // 相关系数 [-1, 1]
	R     float64 // 无风险利率（连续复利，年化）
	T     float64 // 到期时间（年）
}

// DefaultParams 根据历史波动率构造一组初始 Heston 参数。
// 除 v0/theta 外，其余参数取权益类资产的经验默认值。
func DefaultParams(spot, historicalVol, timeToMaturity, riskFreeRate float64) HestonParams {
	variance := historicalVol * historicalVol
	return HestonParams{
		S0:    spot,
		V0:    variance,
		Kappa: 2.0,  // 中等强度的均值回复
		Theta: variance,
		Sigma: 0.3,  // 30%，权益类资产的典型值
		Rho:   -0.7, // 股票与波动率通常负相关
		R:     riskFreeRate,
		T:     timeToMaturity,
	}
}

// Validate 校验全部结构性约束，并额外检查 Feller 条件。
// 返回的错误一次性列出所有被违反的约束，便于调用方排查。
func (p HestonParams) Validate() error {
	violations := p.boundViolations()
	if ratio := p.FellerRatio(); ratio <= 1.0 {
		violations = append(violations, fmt.Sprintf(
			"feller condition violated: 2κθ/σ² = %.3f <= 1.0, variance can become negative", ratio))
	}
	if len(violations) > 0 {
		return xerrors.InvalidArg("invalid heston parameters: " + strings.Join(violations, "; "))
	}
	return nil
}

// ValidateBounds 仅校验硬性参数边界，不检查 Feller 条件。
// 校准得到的参数经常违反 Feller（2κθ/σ² 常见于 0.3~0.9），
// 在 Validate 中一票否决对实际工作流过于苛刻，
// 因此模拟器提供 NewMonteCarloUnchecked 走本校验。
func (p HestonParams) ValidateBounds() error {
	if violations := p.boundViolations(); len(violations) > 0 {
		return xerrors.InvalidArg("invalid heston parameters: " + strings.Join(violations, "; "))
	}
	return nil
}

func (p HestonParams) boundViolations() []string {
	var violations []string
	if p.S0 <= 0 {
		violations = append(violations, "initial stock price must be positive")
	}
	if p.V0 < 0 {
		violations = append(violations, "initial variance cannot be negative")
	}
	if p.Kappa <= 0 {
		violations = append(violations, "mean reversion rate must be positive")
	}
	if p.Theta <= 0 {
		violations = append(violations, "long-term variance must be positive")
	}
	if p.Sigma <= 0 {
		violations = append(violations, "volatility of volatility must be positive")
	}
	if p.Rho < -1 || p.Rho > 1 {
		violations = append(violations, "correlation must be between -1 and 1")
	}
	if p.T <= 0 {
		violations = append(violations, "time to maturity must be positive")
	}
	return violations
}

// SatisfiesFeller 判断参数是否满足 Feller 条件 2κθ > σ²。
// 只作咨询性报告，不作为错误：反射边界保证了违反时模拟依然数值稳定。
func (p HestonParams) SatisfiesFeller() bool {
	return 2*p.Kappa*p.Theta > p.Sigma*p.Sigma
}

// FellerRatio 返回 2κθ/σ²，大于 1 表示满足 Feller 条件。
func (p HestonParams) FellerRatio() float64 {
	return 2 * p.Kappa * p.Theta / (p.Sigma * p.Sigma)
}
