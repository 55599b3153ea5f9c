package domain

import "sort"

// NelderMeadConfig 单纯形优化器参数。
type NelderMeadConfig struct {
	MaxIterations int
	Tolerance     float64
	Alpha         float64 // 反射系数
	Gamma         float64 // 扩张系数
	Rho           float64 // 收缩系数
	Sigma         float64 // 整体收缩系数
}

// DefaultNelderMeadConfig 标准系数：反射 1、扩张 2、收缩 0.5、整体收缩 0.5。
func DefaultNelderMeadConfig() NelderMeadConfig {
	return NelderMeadConfig{
		MaxIterations: 500,
		Tolerance:     1e-6,
		Alpha:         1.0,
		Gamma:         2.0,
		Rho:           0.5,
		Sigma:         0.5,
	}
}

// OptimizationResult 优化结果。未在迭代预算内收敛时 Converged 为 false，
// 仍返回迄今最优点，由调用方自行决定是否采信。
type OptimizationResult struct {
	BestParams []float64
	BestValue  float64
	Iterations int
	Converged  bool
}

// Objective 待最小化的标量目标函数。
type Objective func(params []float64) float64

// NelderMead 无导数单纯形优化器。
// 目标函数确定时整个搜索完全确定，内部不含任何随机性。
type NelderMead struct {
	config NelderMeadConfig
}

// NewNelderMead 创建优化器。
func NewNelderMead(config NelderMeadConfig) *NelderMead {
	return &NelderMead{config: config}
}

// Minimize 从 initial 出发最小化 objective。
// 每轮按目标值排序单纯形顶点，依次尝试反射、扩张、收缩，
// 全部失败时整体向最优点收缩；最差与最优目标值之差小于容限时收敛。
func (nm *NelderMead) Minimize(objective Objective, initial []float64) OptimizationResult {
	n := len(initial)
	simplex := nm.initialSimplex(initial)

	values := make([]float64, len(simplex))
	for i, vertex := range simplex {
		values[i] = objective(vertex)
	}

	iteration := 0
	converged := false

	for iteration < nm.config.MaxIterations {
		indices := make([]int, len(simplex))
		for i := range indices {
			indices[i] = i
		}
		sort.Slice(indices, func(a, b int) bool {
			return values[indices[a]] < values[indices[b]]
		})

		bestIdx := indices[0]
		worstIdx := indices[n]
		secondWorstIdx := indices[n-1]

		if values[worstIdx]-values[bestIdx] < nm.config.Tolerance {
			converged = true
			break
		}

		centroid := nm.centroid(simplex, indices[:n])

		reflected := nm.reflect(simplex[worstIdx], centroid, nm.config.Alpha)
		fReflected := objective(reflected)

		switch {
		case fReflected < values[secondWorstIdx] && fReflected >= values[bestIdx]:
			simplex[worstIdx] = reflected
			values[worstIdx] = fReflected

		case fReflected < values[bestIdx]:
			expanded := nm.reflect(simplex[worstIdx], centroid, nm.config.Gamma)
			fExpanded := objective(expanded)
			if fExpanded < fReflected {
				simplex[worstIdx] = expanded
				values[worstIdx] = fExpanded
			} else {
				simplex[worstIdx] = reflected
				values[worstIdx] = fReflected
			}

		default:
			contracted := nm.contract(simplex[worstIdx], centroid, nm.config.Rho)
			fContracted := objective(contracted)
			if fContracted < values[worstIdx] {
				simplex[worstIdx] = contracted
				values[worstIdx] = fContracted
			} else {
				nm.shrink(simplex, simplex[bestIdx], nm.config.Sigma)
				for i := range simplex {
					values[i] = objective(simplex[i])
				}
			}
		}

		iteration++
	}

	bestIdx := 0
	for i, v := range values {
		if v < values[bestIdx] {
			bestIdx = i
		}
	}

	best := make([]float64, n)
	copy(best, simplex[bestIdx])
	return OptimizationResult{
		BestParams: best,
		BestValue:  values[bestIdx],
		Iterations: iteration,
		Converged:  converged,
	}
}

// initialSimplex 围绕初始点构造 n+1 个顶点：
// 逐坐标扰动 5%，接近零的坐标改用固定的小幅绝对扰动。
func (nm *NelderMead) initialSimplex(initial []float64) [][]float64 {
	n := len(initial)
	simplex := make([][]float64, 0, n+1)

	first := make([]float64, n)
	copy(first, initial)
	simplex = append(simplex, first)

	for i := 0; i < n; i++ {
		vertex := make([]float64, n)
		copy(vertex, initial)
		step := 0.00025
		if abs(initial[i]) > 1e-10 {
			step = initial[i] * 0.05
		}
		vertex[i] += step
		simplex = append(simplex, vertex)
	}
	return simplex
}

func (nm *NelderMead) centroid(simplex [][]float64, indices []int) []float64 {
	n := len(simplex[0])
	centroid := make([]float64, n)
	for _, idx := range indices {
		for i := 0; i < n; i++ {
			centroid[i] += simplex[idx][i]
		}
	}
	for i := 0; i < n; i++ {
		centroid[i] /= float64(len(indices))
	}
	return centroid
}

func (nm *NelderMead) reflect(point, centroid []float64, coeff float64) []float64 {
	out := make([]float64, len(point))
	for i := range point {
		out[i] = centroid[i] + coeff*(centroid[i]-point[i])
	}
	return out
}

func (nm *NelderMead) contract(point, centroid []float64, coeff float64) []float64 {
	out := make([]float64, len(point))
	for i := range point {
		out[i] = centroid[i] + coeff*(point[i]-centroid[i])
	}
	return out
}

func (nm *NelderMead) shrink(simplex [][]float64, best []float64, coeff float64) {
	for _, vertex := range simplex {
		for i := range vertex {
			vertex[i] = best[i] + coeff*(vertex[i]-best[i])
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
