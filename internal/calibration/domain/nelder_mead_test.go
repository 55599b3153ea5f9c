package domain

import (
	"math"
	"testing"
)

func TestNelderMead_Rosenbrock(t *testing.T) {
	// f(x,y) = (1-x)² + 100(y-x²)²，全局最小值在 (1,1)
	rosenbrock := func(p []float64) float64 {
		x, y := p[0], p[1]
		return (1-x)*(1-x) + 100*(y-x*x)*(y-x*x)
	}

	nm := NewNelderMead(DefaultNelderMeadConfig())
	result := nm.Minimize(rosenbrock, []float64{0, 0})

	if math.Abs(result.BestParams[0]-1) > 0.01 || math.Abs(result.BestParams[1]-1) > 0.01 {
		t.Fatalf("minimum not recovered: %v", result.BestParams)
	}
	if result.BestValue >= 0.001 {
		t.Fatalf("objective too high: %v", result.BestValue)
	}
}

func TestNelderMead_Sphere(t *testing.T) {
	sphere := func(p []float64) float64 {
		sum := 0.0
		for _, x := range p {
			sum += x * x
		}
		return sum
	}

	nm := NewNelderMead(DefaultNelderMeadConfig())
	result := nm.Minimize(sphere, []float64{5, -3, 2})

	for i, x := range result.BestParams {
		if math.Abs(x) > 0.01 {
			t.Fatalf("coordinate %d not at origin: %v", i, x)
		}
	}
	if result.BestValue >= 0.001 {
		t.Fatalf("objective too high: %v", result.BestValue)
	}
}

func TestNelderMead_Deterministic(t *testing.T) {
	sphere := func(p []float64) float64 {
		return p[0]*p[0] + p[1]*p[1]
	}

	nm := NewNelderMead(DefaultNelderMeadConfig())
	r1 := nm.Minimize(sphere, []float64{3, 4})
	r2 := nm.Minimize(sphere, []float64{3, 4})

	if r1.BestValue != r2.BestValue || r1.Iterations != r2.Iterations {
		t.Fatalf("same input produced different runs: %+v vs %+v", r1, r2)
	}
	for i := range r1.BestParams {
		if r1.BestParams[i] != r2.BestParams[i] {
			t.Fatalf("best params diverged at %d", i)
		}
	}
}

func TestNelderMead_IterationBudget(t *testing.T) {
	// 不收敛时报告 Converged=false，仍返回迄今最优点
	cfg := DefaultNelderMeadConfig()
	cfg.MaxIterations = 3
	nm := NewNelderMead(cfg)

	rosenbrock := func(p []float64) float64 {
		x, y := p[0], p[1]
		return (1-x)*(1-x) + 100*(y-x*x)*(y-x*x)
	}
	result := nm.Minimize(rosenbrock, []float64{-2, 2})

	if result.Converged {
		t.Fatalf("3 iterations should not converge on rosenbrock")
	}
	if result.Iterations != 3 {
		t.Fatalf("iteration count mismatch: %d", result.Iterations)
	}
	if len(result.BestParams) != 2 || !isFiniteVal(result.BestValue) {
		t.Fatalf("best-so-far not reported: %+v", result)
	}
}

func isFiniteVal(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
