package domain

import (
	"errors"
	"math"

	"github.com/wyfcoding/pkg/xerrors"

	pricing "github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// ErrEmptyBasket 空报价篮子无法校准，调用方必须区别于"未收敛"。
var ErrEmptyBasket = errors.New("no market data provided for calibration")

// CalibParams 参与拟合的 5 个自由参数。
type CalibParams struct {
	Kappa float64 `json:"kappa"`
	Theta float64 `json:"theta"`
	Sigma float64 `json:"sigma"`
	Rho   float64 `json:"rho"`
	V0    float64 `json:"v0"`
}

// ToHeston 与现货、利率、期限组合成完整的模型参数。
func (c CalibParams) ToHeston(spot, rate, t float64) pricing.HestonParams {
	return pricing.HestonParams{
		S0:    spot,
		V0:    c.V0,
		Kappa: c.Kappa,
		Theta: c.Theta,
		Sigma: c.Sigma,
		Rho:   c.Rho,
		R:     rate,
		T:     t,
	}
}

func (c CalibParams) toVector() []float64 {
	return []float64{c.Kappa, c.Theta, c.Sigma, c.Rho, c.V0}
}

func calibParamsFromVector(v []float64) CalibParams {
	return CalibParams{Kappa: v[0], Theta: v[1], Sigma: v[2], Rho: v[3], V0: v[4]}
}

// CalibrationResult 校准结果，产出后不再变更。
// Converged=false 仍携带迄今最优参数，是否采信由下游把关。
type CalibrationResult struct {
	Params       CalibParams `json:"params"`
	RMSE         float64     `json:"rmse"`
	Iterations   int         `json:"iterations"`
	Converged    bool        `json:"converged"`
	Success      bool        `json:"success"`
	InitialError float64     `json:"initial_error"`
	FinalError   float64     `json:"final_error"`
}

// Calibrator 以加权最小二乘拟合 Heston 参数。
// 目标函数穿过解析定价器，由 Nelder-Mead 驱动搜索。
type Calibrator struct {
	pricer    *pricing.AnalyticalPricer
	optimizer *NelderMead
}

// NewCalibrator 创建校准器。
func NewCalibrator() *Calibrator {
	return &Calibrator{
		pricer:    pricing.NewAnalyticalPricer(),
		optimizer: NewNelderMead(DefaultNelderMeadConfig()),
	}
}

// 越界与违反 Feller 的顶点统一打重罚，把搜索压回可行域
const penalty = 1e10

// Calibrate 从 initial 出发拟合市场报价。
// 成功标志要求既收敛又把初始误差至少压掉一半，
// 仅作质量提示，不影响结果本身的返回。
func (c *Calibrator) Calibrate(spot, rate float64, marketData []MarketOption, initial CalibParams) (CalibrationResult, error) {
	if len(marketData) == 0 {
		return CalibrationResult{}, xerrors.Wrap(ErrEmptyBasket, xerrors.ErrInvalidArg, "calibration failure")
	}

	initialError := c.weightedRMSE(initial, spot, rate, marketData)

	objective := func(params []float64) float64 {
		if !withinBounds(params) || !satisfiesFeller(params) {
			return penalty
		}
		return c.weightedRMSE(calibParamsFromVector(params), spot, rate, marketData)
	}

	result := c.optimizer.Minimize(objective, initial.toVector())

	fitted := calibParamsFromVector(result.BestParams)
	finalError := result.BestValue

	return CalibrationResult{
		Params:       fitted,
		RMSE:         finalError,
		Iterations:   result.Iterations,
		Converged:    result.Converged,
		Success:      result.Converged && finalError < initialError*0.5,
		InitialError: initialError,
		FinalError:   finalError,
	}, nil
}

// weightedRMSE 加权均方根误差。权重 = 1/(价差+0.01)，
// 报价越紧的市场在目标函数里话语权越大。
func (c *Calibrator) weightedRMSE(params CalibParams, spot, rate float64, marketData []MarketOption) float64 {
	totalError := 0.0
	totalWeight := 0.0

	for _, option := range marketData {
		heston := params.ToHeston(spot, rate, option.TimeToExpiry)

		var modelPrice float64
		if option.Type == pricing.OptionTypePut {
			modelPrice = c.pricer.PricePut(heston, option.Strike)
		} else {
			modelPrice = c.pricer.PriceCall(heston, option.Strike)
		}

		weight := 1.0 / (option.Spread() + 0.01)
		diff := modelPrice - option.Mid()
		totalError += diff * diff * weight
		totalWeight += weight
	}

	return math.Sqrt(totalError / totalWeight)
}

// withinBounds 参数盒约束：
// κ∈[0.01,10]、θ∈[0.01,2]、σ∈[0.01,1.5]、ρ∈[-1,0]、v0∈[0.01,2]。
func withinBounds(params []float64) bool {
	kappa, theta, sigma, rho, v0 := params[0], params[1], params[2], params[3], params[4]
	return kappa >= 0.01 && kappa <= 10.0 &&
		theta >= 0.01 && theta <= 2.0 &&
		sigma >= 0.01 && sigma <= 1.5 &&
		rho >= -1.0 && rho <= 0.0 &&
		v0 >= 0.01 && v0 <= 2.0
}

func satisfiesFeller(params []float64) bool {
	kappa, theta, sigma := params[0], params[1], params[2]
	return 2*kappa*theta > sigma*sigma
}
