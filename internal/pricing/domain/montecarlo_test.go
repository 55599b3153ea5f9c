package domain

import (
	"math"
	"testing"
)

func defaultConfig() SimulationConfig {
	return SimulationConfig{Paths: 1000, Steps: 252, Seed: 42, Antithetic: false}
}

func TestMonteCarlo_CallPriceReasonable(t *testing.T) {
	mc, err := NewMonteCarlo(validParams(), defaultConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	price := mc.PriceCall(100.0)
	if price <= 0 || price >= 100 {
		t.Fatalf("call price out of reasonable range: %v", price)
	}
}

func TestMonteCarlo_Deterministic(t *testing.T) {
	// 相同种子下，并行调度顺序不得影响结果
	cfg := SimulationConfig{Paths: 4000, Steps: 100, Seed: 42, Antithetic: true}
	mc1, _ := NewMonteCarlo(validParams(), cfg)
	mc2, _ := NewMonteCarlo(validParams(), cfg)
	p1 := mc1.PriceCall(100.0)
	p2 := mc2.PriceCall(100.0)
	if p1 != p2 {
		t.Fatalf("same seed produced different prices: %v vs %v", p1, p2)
	}
}

func TestMonteCarlo_PutCallParity(t *testing.T) {
	p := validParams()
	cfg := SimulationConfig{Paths: 20000, Steps: 252, Seed: 42, Antithetic: true}
	mc, err := NewMonteCarlo(p, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	strike := 100.0
	call := mc.PriceCall(strike)
	put := mc.PricePut(strike)

	// C - P = S0 - K*e^{-rT}，容许蒙特卡洛误差
	lhs := call - put
	rhs := p.S0 - strike*math.Exp(-p.R*p.T)
	if !almostEqual(lhs, rhs, 1.5) {
		t.Fatalf("parity violated: lhs=%v rhs=%v", lhs, rhs)
	}
}

func TestMonteCarlo_VarianceMeanReversion(t *testing.T) {
	p := HestonParams{
		S0:    100.0,
		V0:    0.09, // 从长期方差上方出发
		Kappa: 3.0,  // 强均值回复
		Theta: 0.04,
		Sigma: 0.2,
		Rho:   -0.5,
		R:     0.05,
		T:     5.0,
	}
	cfg := SimulationConfig{Paths: 5000, Steps: 1000, Seed: 123}
	mc, err := NewMonteCarlo(p, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	avgVar := mc.AverageFinalVariance()
	if !almostEqual(avgVar, p.Theta, 0.02) {
		t.Fatalf("variance did not revert to theta: got=%v want about %v", avgVar, p.Theta)
	}
}

func TestMonteCarlo_FellerViolation_VarianceStaysNonNegative(t *testing.T) {
	// 刻意违反 Feller（2*0.5*0.02=0.02 << 0.64），反射边界必须兜住方差
	p := HestonParams{
		S0:    100.0,
		V0:    0.02,
		Kappa: 0.5,
		Theta: 0.02,
		Sigma: 0.8,
		Rho:   -0.9,
		R:     0.03,
		T:     1.0,
	}
	if p.SatisfiesFeller() {
		t.Fatalf("test setup wrong: params should violate feller")
	}
	if _, err := NewMonteCarlo(p, defaultConfig()); err == nil {
		t.Fatalf("checked constructor should reject feller violation")
	}

	cfg := SimulationConfig{Paths: 2000, Steps: 252, Seed: 7}
	mc, err := NewMonteCarloUnchecked(p, cfg)
	if err != nil {
		t.Fatalf("unchecked constructor: %v", err)
	}

	minVar := math.Inf(1)
	for _, path := range mc.SimulatePaths() {
		for _, v := range path.Variances {
			if v < minVar {
				minVar = v
			}
		}
	}
	if minVar < 0 {
		t.Fatalf("negative variance observed: %v", minVar)
	}
}

func TestMonteCarlo_AntitheticReducesVariance(t *testing.T) {
	// 等量采样预算下，对偶配对估计量的跨种子方差应低于独立采样
	p := validParams()
	strike := 100.0
	seeds := 20

	variance := func(antithetic bool) float64 {
		prices := make([]float64, seeds)
		for i := 0; i < seeds; i++ {
			cfg := SimulationConfig{
				Paths:      500,
				Steps:      50,
				Seed:       uint64(10000 * (i + 1)),
				Antithetic: antithetic,
			}
			mc, err := NewMonteCarlo(p, cfg)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			prices[i] = mc.PriceCall(strike)
		}
		mean := 0.0
		for _, pr := range prices {
			mean += pr
		}
		mean /= float64(seeds)
		sq := 0.0
		for _, pr := range prices {
			sq += (pr - mean) * (pr - mean)
		}
		return sq / float64(seeds)
	}

	plain := variance(false)
	anti := variance(true)
	if anti >= plain {
		t.Fatalf("antithetic estimator variance %v not below plain %v", anti, plain)
	}
}

func TestMonteCarlo_TerminalDistribution(t *testing.T) {
	mc, err := NewMonteCarlo(validParams(), SimulationConfig{Paths: 2000, Steps: 100, Seed: 42})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dist := mc.TerminalDistribution(20)

	if len(dist.Counts) != 20 || len(dist.BinEdges) != 21 {
		t.Fatalf("histogram shape wrong: counts=%d edges=%d", len(dist.Counts), len(dist.BinEdges))
	}
	total := 0
	for _, c := range dist.Counts {
		total += c
	}
	if total != 2000 {
		t.Fatalf("histogram lost paths: %d", total)
	}
	if dist.Min > dist.Median || dist.Median > dist.Max {
		t.Fatalf("ordering broken: min=%v median=%v max=%v", dist.Min, dist.Median, dist.Max)
	}
	// r=5%、T=1 下终端均值应在 S0*e^{rT} 附近
	want := 100.0 * math.Exp(0.05)
	if !almostEqual(dist.Mean, want, 2.0) {
		t.Fatalf("terminal mean drifted: got=%v want about %v", dist.Mean, want)
	}
}

func TestMonteCarlo_RejectsNonPositiveConfig(t *testing.T) {
	// 路径数或步数不为正时两个构造函数都必须拒绝，
	// 否则终端分布等聚合操作会在空切片上崩溃
	cases := []SimulationConfig{
		{Paths: 0, Steps: 100, Seed: 42},
		{Paths: 1000, Steps: 0, Seed: 42},
		{Paths: -1, Steps: 100, Seed: 42},
		{Paths: 1000, Steps: -5, Seed: 42},
	}
	for i, cfg := range cases {
		if _, err := NewMonteCarlo(validParams(), cfg); err == nil {
			t.Fatalf("case %d: config %+v accepted by NewMonteCarlo", i, cfg)
		}
		if _, err := NewMonteCarloUnchecked(validParams(), cfg); err == nil {
			t.Fatalf("case %d: config %+v accepted by NewMonteCarloUnchecked", i, cfg)
		}
	}
}
