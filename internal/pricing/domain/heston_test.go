package domain

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func validParams() HestonParams {
	return HestonParams{
		S0:    100.0,
		V0:    0.04,
		Kappa: 2.0,
		Theta: 0.04,
		Sigma: 0.3,
		Rho:   -0.7,
		R:     0.05,
		T:     1.0,
	}
}

func TestHestonParams_Validate_OK(t *testing.T) {
	p := validParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid params, got: %v", err)
	}
}

func TestHestonParams_Validate_EnumeratesAllViolations(t *testing.T) {
	// 多个约束同时违反时，错误信息必须一次性全部列出
	p := HestonParams{
		S0:    -1,
		V0:    -0.1,
		Kappa: 0,
		Theta: 0.04,
		Sigma: 0.3,
		Rho:   -1.5,
		R:     0.05,
		T:     1.0,
	}
	err := p.Validate()
	if err == nil {
		t.Fatalf("expected error for invalid params")
	}
	msg := err.Error()
	for _, want := range []string{"stock price", "variance cannot be negative", "mean reversion", "correlation"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error should mention %q, got: %v", want, msg)
		}
	}
}

func TestHestonParams_FellerAdvisory(t *testing.T) {
	p := validParams()
	// 2*2*0.04 = 0.16 > 0.09
	if !p.SatisfiesFeller() {
		t.Fatalf("expected feller satisfied, ratio=%v", p.FellerRatio())
	}

	p.Sigma = 0.8 // 0.16 < 0.64，违反 Feller
	if p.SatisfiesFeller() {
		t.Fatalf("expected feller violated, ratio=%v", p.FellerRatio())
	}
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate should reject feller violation")
	}
	// ValidateBounds 只查硬性边界，违反 Feller 仍然放行
	if err := p.ValidateBounds(); err != nil {
		t.Fatalf("ValidateBounds should pass: %v", err)
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams(100.0, 0.2, 0.5, 0.05)
	if !almostEqual(p.V0, 0.04, 1e-12) || !almostEqual(p.Theta, 0.04, 1e-12) {
		t.Fatalf("v0/theta should equal vol squared: v0=%v theta=%v", p.V0, p.Theta)
	}
	if p.Kappa != 2.0 || p.Sigma != 0.3 || p.Rho != -0.7 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
}
