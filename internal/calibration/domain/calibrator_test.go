package domain

import (
	"errors"
	"testing"

	pricing "github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

func trueCalibParams() CalibParams {
	return CalibParams{Kappa: 2.0, Theta: 0.04, Sigma: 0.3, Rho: -0.7, V0: 0.04}
}

func TestCalibrator_EmptyBasket(t *testing.T) {
	c := NewCalibrator()
	_, err := c.Calibrate(100.0, 0.05, nil, trueCalibParams())
	if err == nil {
		t.Fatalf("empty basket must fail, not return a silent result")
	}
	if !errors.Is(err, ErrEmptyBasket) {
		t.Fatalf("expected ErrEmptyBasket, got: %v", err)
	}
}

func TestCalibrator_SyntheticRoundTrip(t *testing.T) {
	// 已知参数生成合成链（3% 价差），从真实参数出发校准，
	// 最终 RMSE 应接近零
	spot, rate := 100.0, 0.05
	truth := trueCalibParams()
	strikes := []float64{90, 95, 100, 105, 110}
	maturities := []float64{0.25, 0.5}

	chain := SyntheticChain(spot, rate, truth, strikes, maturities)
	if len(chain) != len(strikes)*len(maturities) {
		t.Fatalf("chain size mismatch: %d", len(chain))
	}

	c := NewCalibrator()
	result, err := c.Calibrate(spot, rate, chain, truth)
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}

	if result.FinalError > 0.05 {
		t.Fatalf("round-trip rmse should be near zero: %v", result.FinalError)
	}
	if result.FinalError > result.InitialError {
		t.Fatalf("optimizer made the fit worse: initial=%v final=%v", result.InitialError, result.FinalError)
	}
	// 拟合参数不应漂离真实值太远
	p := result.Params
	if absDiff(p.Kappa, truth.Kappa) > 1.0 || absDiff(p.Theta, truth.Theta) > 0.02 ||
		absDiff(p.Sigma, truth.Sigma) > 0.2 || absDiff(p.Rho, truth.Rho) > 0.3 ||
		absDiff(p.V0, truth.V0) > 0.02 {
		t.Fatalf("fitted params drifted: %+v", p)
	}
}

func TestCalibrator_PerturbedGuessImproves(t *testing.T) {
	// 从偏离的初值出发，优化必须显著压低误差
	spot, rate := 100.0, 0.05
	truth := trueCalibParams()
	chain := SyntheticChain(spot, rate, truth,
		[]float64{90, 100, 110}, []float64{0.25, 0.5})

	guess := CalibParams{Kappa: 3.0, Theta: 0.06, Sigma: 0.4, Rho: -0.5, V0: 0.06}
	c := NewCalibrator()
	result, err := c.Calibrate(spot, rate, chain, guess)
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}

	if result.FinalError >= result.InitialError {
		t.Fatalf("no improvement: initial=%v final=%v", result.InitialError, result.FinalError)
	}
	if result.Iterations == 0 {
		t.Fatalf("optimizer did not iterate")
	}
}

func TestCalibrator_ObjectiveRejectsOutOfBounds(t *testing.T) {
	if withinBounds([]float64{2.0, 0.04, 0.3, -0.7, 0.04}) != true {
		t.Fatalf("valid vector rejected")
	}
	cases := [][]float64{
		{0.0, 0.04, 0.3, -0.7, 0.04},  // kappa 过小
		{2.0, 3.0, 0.3, -0.7, 0.04},   // theta 过大
		{2.0, 0.04, 2.0, -0.7, 0.04},  // sigma 过大
		{2.0, 0.04, 0.3, 0.5, 0.04},   // rho 为正
		{2.0, 0.04, 0.3, -0.7, 0.005}, // v0 过小
	}
	for i, v := range cases {
		if withinBounds(v) {
			t.Fatalf("case %d should be out of bounds: %v", i, v)
		}
	}
}

func TestLiquidityFilter(t *testing.T) {
	f := DefaultLiquidityFilter()
	options := []MarketOption{
		// 合格
		{Strike: 100, TimeToExpiry: 30.0 / 365, Bid: 4.9, Ask: 5.1, Type: pricing.OptionTypeCall, Volume: 100},
		// 成交量不足
		{Strike: 100, TimeToExpiry: 30.0 / 365, Bid: 4.9, Ask: 5.1, Type: pricing.OptionTypeCall, Volume: 10},
		// 价差过宽
		{Strike: 100, TimeToExpiry: 30.0 / 365, Bid: 4.0, Ask: 6.0, Type: pricing.OptionTypeCall, Volume: 100},
		// 到期过近
		{Strike: 100, TimeToExpiry: 2.0 / 365, Bid: 4.9, Ask: 5.1, Type: pricing.OptionTypeCall, Volume: 100},
		// 到期过远
		{Strike: 100, TimeToExpiry: 1.0, Bid: 4.9, Ask: 5.1, Type: pricing.OptionTypeCall, Volume: 100},
	}

	liquid := f.Apply(options)
	if len(liquid) != 1 {
		t.Fatalf("expected 1 liquid option, got %d", len(liquid))
	}
	if liquid[0].Volume != 100 || liquid[0].Spread() > 0.21 {
		t.Fatalf("wrong option survived: %+v", liquid[0])
	}
}

func TestMarketOption_Quotes(t *testing.T) {
	o := MarketOption{Bid: 4.0, Ask: 6.0}
	if o.Mid() != 5.0 {
		t.Fatalf("mid mismatch: %v", o.Mid())
	}
	if o.Spread() != 2.0 {
		t.Fatalf("spread mismatch: %v", o.Spread())
	}
	if !almostEq(o.SpreadPct(), 40.0, 1e-12) {
		t.Fatalf("spread pct mismatch: %v", o.SpreadPct())
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func almostEq(a, b, tol float64) bool {
	return absDiff(a, b) <= tol
}
