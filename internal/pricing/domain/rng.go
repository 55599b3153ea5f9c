package domain

import "math"

// randStream 线性同余随机数流（Numerical Recipes 参数）。
// 一条路径独占一个实例，绝不跨 goroutine 共享；
// 相同种子必然产出完全一致的序列，与线程和时钟无关。
type randStream struct {
	state uint64
}

func newRandStream(seed uint64) *randStream {
	return &randStream{state: seed}
}

// nextUniform 生成 [ε, 1) 区间的均匀随机数。
// 下界远离 0，保证 Box-Muller 中 ln(u) 不会退化为 -Inf。
func (r *randStream) nextUniform() float64 {
	const (
		a uint64 = 1664525
		c uint64 = 1013904223
		m uint64 = 1 << 32
	)
	r.state = (a*r.state + c) % m
	u := float64(r.state) / float64(m)
	if u < 1e-12 {
		u = 1e-12
	}
	return u
}

// nextNormal Box-Muller 变换生成标准正态随机数。
func (r *randStream) nextNormal() float64 {
	u1 := r.nextUniform()
	u2 := r.nextUniform()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// nextCorrelatedPair 生成相关系数为 rho 的标准正态对 (w1, w2)：
// w1 = z1, w2 = ρ·z1 + √(1-ρ²)·z2。
func (r *randStream) nextCorrelatedPair(rho float64) (float64, float64) {
	z1 := r.nextNormal()
	z2 := r.nextNormal()
	return z1, rho*z1 + math.Sqrt(1-rho*rho)*z2
}
