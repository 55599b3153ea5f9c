package domain

import "math"

// Greeks 期权价格敏感度。
type Greeks struct {
	Price float64 // 基准价格
	Delta float64 // ∂V/∂S
	Gamma float64 // ∂²V/∂S²
	Vega  float64 // 对波动率的敏感度（已折算到波动率单位）
	Theta float64 // 时间衰减（每日）
	Rho   float64 // ∂V/∂r
}

// PriceFunc 任意定价函数。Greeks 引擎对解析与蒙特卡洛定价器一视同仁，
// 差分时以扰动后的参数重建整个定价调用。
type PriceFunc func(params HestonParams, strike float64) float64

// 有限差分扰动幅度。蒙特卡洛定价噪声大，用同样的扰动时
// 必须配合足够的路径数，过小的扰动会被采样噪声淹没。
const (
	bumpSpot = 0.01        // 现货 ±1%
	bumpVar  = 0.01        // 初始方差 +0.01
	bumpTime = 1.0 / 365.0 // 一天
	bumpRate = 0.0001      // 一个基点
)

// ComputeGreeks 以有限差分计算全部 Greeks。
// Delta/Gamma 取中心差分，Vega 为方差扰动折算到波动率单位（×2√v0），
// Theta 取一天期限收缩的前向差分，Rho 取一个基点的利率扰动。
// 剩余期限不足一天时 Theta/Rho 置零，避免除以近零区间。
func ComputeGreeks(price PriceFunc, params HestonParams, strike float64) Greeks {
	base := price(params, strike)

	up := params
	up.S0 = params.S0 * (1 + bumpSpot)
	priceUp := price(up, strike)

	down := params
	down.S0 = params.S0 * (1 - bumpSpot)
	priceDown := price(down, strike)

	delta := (priceUp - priceDown) / (2 * params.S0 * bumpSpot)
	gamma := (priceUp - 2*base + priceDown) / ((params.S0 * bumpSpot) * (params.S0 * bumpSpot))

	vegaUp := params
	vegaUp.V0 = params.V0 + bumpVar
	// ∂v/∂σ = 2σ，方差敏感度乘 2√v0 即波动率单位的 vega
	vega := (price(vegaUp, strike) - base) / bumpVar * 2 * math.Sqrt(params.V0)

	var theta, rho float64
	if params.T > bumpTime {
		thetaP := params
		thetaP.T = params.T - bumpTime
		theta = (price(thetaP, strike) - base) / bumpTime

		rhoP := params
		rhoP.R = params.R + bumpRate
		rho = (price(rhoP, strike) - base) / bumpRate
	}

	return Greeks{
		Price: base,
		Delta: delta,
		Gamma: gamma,
		Vega:  vega,
		Theta: theta,
		Rho:   rho,
	}
}

// GreeksCall 解析定价器的看涨 Greeks。
func (p *AnalyticalPricer) GreeksCall(params HestonParams, strike float64) Greeks {
	return ComputeGreeks(func(pr HestonParams, k float64) float64 {
		return p.PriceCall(pr, k)
	}, params, strike)
}

// GreeksPut 解析定价器的看跌 Greeks。
func (p *AnalyticalPricer) GreeksPut(params HestonParams, strike float64) Greeks {
	return ComputeGreeks(func(pr HestonParams, k float64) float64 {
		return p.PricePut(pr, k)
	}, params, strike)
}

// GreeksCall 蒙特卡洛看涨 Greeks。
// 扰动保持硬性边界但可能打破 Feller，因此重建走 Unchecked 构造。
func (m *MonteCarlo) GreeksCall(strike float64) Greeks {
	return ComputeGreeks(m.repriceFunc((*MonteCarlo).PriceCall), m.params, strike)
}

// GreeksPut 蒙特卡洛看跌 Greeks。
func (m *MonteCarlo) GreeksPut(strike float64) Greeks {
	return ComputeGreeks(m.repriceFunc((*MonteCarlo).PricePut), m.params, strike)
}

func (m *MonteCarlo) repriceFunc(price func(*MonteCarlo, float64) float64) PriceFunc {
	return func(params HestonParams, strike float64) float64 {
		bumped, err := NewMonteCarloUnchecked(params, m.config)
		if err != nil {
			return math.NaN()
		}
		return price(bumped, strike)
	}
}
