package domain

import (
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/wyfcoding/pkg/xerrors"
)

// SimulationConfig 蒙特卡洛模拟配置。单次模拟调用内不可变，
// 给定 Seed 后随机流被完全确定。
type SimulationConfig struct {
	Paths      int    // 模拟路径数
	Steps      int    // 时间步数
	Seed       uint64 // 随机种子
	Antithetic bool   // 是否启用对偶变量方差缩减
}

// validate 路径数与步数必须为正，否则模拟退化或越界。
func (c SimulationConfig) validate() error {
	if c.Paths <= 0 {
		return xerrors.InvalidArg("simulation paths must be positive")
	}
	if c.Steps <= 0 {
		return xerrors.InvalidArg("simulation steps must be positive")
	}
	return nil
}

// Path 一条模拟路径：离散网格上的 (价格, 方差) 序列，均含初始点。
type Path struct {
	Prices    []float64
	Variances []float64
}

// stepShock 单步抽取的一对标准正态冲击，对偶路径按其取反重放。
type stepShock struct {
	zS float64 // 价格冲击
	zV float64 // 方差冲击
}

// MonteCarlo Heston 蒙特卡洛模拟器。
// 方差过程采用全截断 Milstein 离散加反射边界，价格过程采用 Euler 离散；
// 路径间完全独立（seed = 基础种子 + 路径下标），并行聚合不加任何锁。
type MonteCarlo struct {
	params HestonParams
	config SimulationConfig
}

// NewMonteCarlo 创建模拟器，要求参数通过包括 Feller 条件在内的全部校验。
func NewMonteCarlo(params HestonParams, config SimulationConfig) (*MonteCarlo, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &MonteCarlo{params: params, config: config}, nil
}

// NewMonteCarloUnchecked 创建模拟器但不校验 Feller 条件。
// 校准结果经常违反 Feller，反射边界保证此时模拟依然稳定，
// 压力测试也依赖这条构造路径。硬性边界仍然全部校验。
func NewMonteCarloUnchecked(params HestonParams, config SimulationConfig) (*MonteCarlo, error) {
	if err := params.ValidateBounds(); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &MonteCarlo{params: params, config: config}, nil
}

// Params 返回模型参数。
func (m *MonteCarlo) Params() HestonParams { return m.params }

// Config 返回模拟配置。
func (m *MonteCarlo) Config() SimulationConfig { return m.config }

// step 推进一个时间步。
// 方差：全截断 Milstein，v' = v + κ(θ-v⁺)dt + σ√(v⁺dt)·zV + ¼σ²dt(zV²-1)，
// 负值按反射规则取绝对值，绝不截断为零。
// 价格：Euler，S' = S(1 + r·dt + √(v⁺dt)·zS)，下限为零。
// 公式与反射顺序刻意保持原样，不做任何"改进"。
func (m *MonteCarlo) step(s, v, zS, zV, dt float64) (float64, float64) {
	vPlus := math.Max(v, 0)
	sqrtVdt := math.Sqrt(vPlus * dt)

	vNext := v + m.params.Kappa*(m.params.Theta-vPlus)*dt +
		m.params.Sigma*sqrtVdt*zV +
		0.25*m.params.Sigma*m.params.Sigma*dt*(zV*zV-1)
	if vNext < 0 {
		vNext = -vNext
	}

	sNext := s * (1 + m.params.R*dt + sqrtVdt*zS)
	if sNext < 0 {
		sNext = 0
	}
	return sNext, vNext
}

// simulatePath 模拟一条完整路径，rng 由本路径独占。
func (m *MonteCarlo) simulatePath(rng *randStream) Path {
	dt := m.params.T / float64(m.config.Steps)

	prices := make([]float64, 0, m.config.Steps+1)
	variances := make([]float64, 0, m.config.Steps+1)
	prices = append(prices, m.params.S0)
	variances = append(variances, m.params.V0)

	s, v := m.params.S0, m.params.V0
	for i := 0; i < m.config.Steps; i++ {
		zS, zV := rng.nextCorrelatedPair(m.params.Rho)
		s, v = m.step(s, v, zS, zV, dt)
		prices = append(prices, s)
		variances = append(variances, v)
	}
	return Path{Prices: prices, Variances: variances}
}

// simulatePathRecorded 模拟一条路径并记录每步抽取的冲击对，供对偶路径重放。
func (m *MonteCarlo) simulatePathRecorded(rng *randStream) (Path, []stepShock) {
	dt := m.params.T / float64(m.config.Steps)

	prices := make([]float64, 0, m.config.Steps+1)
	variances := make([]float64, 0, m.config.Steps+1)
	shocks := make([]stepShock, 0, m.config.Steps)
	prices = append(prices, m.params.S0)
	variances = append(variances, m.params.V0)

	s, v := m.params.S0, m.params.V0
	for i := 0; i < m.config.Steps; i++ {
		zS, zV := rng.nextCorrelatedPair(m.params.Rho)
		shocks = append(shocks, stepShock{zS: zS, zV: zV})
		s, v = m.step(s, v, zS, zV, dt)
		prices = append(prices, s)
		variances = append(variances, v)
	}
	return Path{Prices: prices, Variances: variances}, shocks
}

// simulatePathAntithetic 以取反的冲击序列重放完全相同的更新逻辑。
// 反射规则必须原样重放：对偶分支漏掉反射会悄悄破坏负相关配对，
// 把方差缩减本应消除的方差重新引回来。
func (m *MonteCarlo) simulatePathAntithetic(shocks []stepShock) Path {
	dt := m.params.T / float64(m.config.Steps)

	prices := make([]float64, 0, len(shocks)+1)
	variances := make([]float64, 0, len(shocks)+1)
	prices = append(prices, m.params.S0)
	variances = append(variances, m.params.V0)

	s, v := m.params.S0, m.params.V0
	for _, sh := range shocks {
		s, v = m.step(s, v, -sh.zS, -sh.zV, dt)
		prices = append(prices, s)
		variances = append(variances, v)
	}
	return Path{Prices: prices, Variances: variances}
}

// SimulatePaths 模拟全部路径并返回，供终端分布等诊断用途。
// 每条路径独立播种，结果与并行度无关。
func (m *MonteCarlo) SimulatePaths() []Path {
	paths := make([]Path, m.config.Paths)
	m.parallelPaths(func(i int, rng *randStream) {
		paths[i] = m.simulatePath(rng)
	})
	return paths
}

// PriceCall 蒙特卡洛定价欧式看涨期权。
func (m *MonteCarlo) PriceCall(strike float64) float64 {
	return m.price(func(sT float64) float64 { return math.Max(sT-strike, 0) })
}

// PricePut 蒙特卡洛定价欧式看跌期权。
func (m *MonteCarlo) PricePut(strike float64) float64 {
	return m.price(func(sT float64) float64 { return math.Max(strike-sT, 0) })
}

// price 并行模拟并按贴现均值给出价格。
// 先并行填充按路径下标预分配的 payoff 切片，再串行求和，
// 相同种子下结果与调度顺序无关，逐比特可复现。
func (m *MonteCarlo) price(payoff func(float64) float64) float64 {
	if m.config.Antithetic {
		return m.priceAntithetic(payoff)
	}

	payoffs := make([]float64, m.config.Paths)
	m.parallelPaths(func(i int, rng *randStream) {
		path := m.simulatePath(rng)
		payoffs[i] = payoff(path.Prices[len(path.Prices)-1])
	})

	sum := 0.0
	for _, p := range payoffs {
		sum += p
	}
	discount := math.Exp(-m.params.R * m.params.T)
	return discount * sum / float64(m.config.Paths)
}

// priceAntithetic 对偶变量定价：每对路径共用一次冲击抽样，
// 正反两条路径的 payoff 先配对平均再跨对聚合。
func (m *MonteCarlo) priceAntithetic(payoff func(float64) float64) float64 {
	pairs := m.config.Paths / 2
	if pairs == 0 {
		pairs = 1
	}

	payoffs := make([]float64, pairs)
	m.parallelN(pairs, func(i int, rng *randStream) {
		path1, shocks := m.simulatePathRecorded(rng)
		path2 := m.simulatePathAntithetic(shocks)
		p1 := payoff(path1.Prices[len(path1.Prices)-1])
		p2 := payoff(path2.Prices[len(path2.Prices)-1])
		payoffs[i] = (p1 + p2) / 2
	})

	sum := 0.0
	for _, p := range payoffs {
		sum += p
	}
	discount := math.Exp(-m.params.R * m.params.T)
	return discount * sum / float64(pairs)
}

// AverageFinalPrice 全部路径终端价格的均值。
func (m *MonteCarlo) AverageFinalPrice() float64 {
	finals := m.finalValues(func(p Path) float64 { return p.Prices[len(p.Prices)-1] })
	sum := 0.0
	for _, f := range finals {
		sum += f
	}
	return sum / float64(len(finals))
}

// AverageFinalVariance 全部路径终端方差的均值。
func (m *MonteCarlo) AverageFinalVariance() float64 {
	finals := m.finalValues(func(p Path) float64 { return p.Variances[len(p.Variances)-1] })
	sum := 0.0
	for _, f := range finals {
		sum += f
	}
	return sum / float64(len(finals))
}

func (m *MonteCarlo) finalValues(pick func(Path) float64) []float64 {
	finals := make([]float64, m.config.Paths)
	m.parallelPaths(func(i int, rng *randStream) {
		finals[i] = pick(m.simulatePath(rng))
	})
	return finals
}

// DistributionSummary 终端价格分布摘要。
type DistributionSummary struct {
	Mean     float64
	Median   float64
	Min      float64
	Max      float64
	StdDev   float64
	BinEdges []float64 // 长度 = len(Counts)+1
	Counts   []int
}

// TerminalDistribution 统计终端价格分布并按 bins 个等宽区间直方图化。
func (m *MonteCarlo) TerminalDistribution(bins int) DistributionSummary {
	if bins <= 0 {
		bins = 20
	}
	finals := m.finalValues(func(p Path) float64 { return p.Prices[len(p.Prices)-1] })
	sort.Float64s(finals)

	n := len(finals)
	minP, maxP := finals[0], finals[n-1]

	sum := 0.0
	for _, f := range finals {
		sum += f
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (finals[n/2-1] + finals[n/2]) / 2
	} else {
		median = finals[n/2]
	}

	sqSum := 0.0
	for _, f := range finals {
		sqSum += (f - mean) * (f - mean)
	}
	stdDev := math.Sqrt(sqSum / float64(n))

	binWidth := (maxP - minP) / float64(bins)
	counts := make([]int, bins)
	edges := make([]float64, bins+1)
	for i := 0; i <= bins; i++ {
		edges[i] = minP + float64(i)*binWidth
	}
	for _, f := range finals {
		idx := bins - 1
		if binWidth > 0 {
			idx = int((f - minP) / binWidth)
			if idx >= bins {
				idx = bins - 1
			}
		}
		counts[idx]++
	}

	return DistributionSummary{
		Mean:     mean,
		Median:   median,
		Min:      minP,
		Max:      maxP,
		StdDev:   stdDev,
		BinEdges: edges,
		Counts:   counts,
	}
}

// parallelPaths 按路径数并行执行 fn，每条路径独享确定性播种的随机流。
func (m *MonteCarlo) parallelPaths(fn func(i int, rng *randStream)) {
	m.parallelN(m.config.Paths, fn)
}

// parallelN 信号量限制并发数的纯 map：下标 i 的任务独享 seed+i 随机流，
// 写入各自的下标槽位，不存在任何共享可变状态。
func (m *MonteCarlo) parallelN(n int, fn func(i int, rng *randStream)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if n < 100 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	wg.Add(n)

	sem := make(chan struct{}, numWorkers)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fn(idx, newRandStream(m.config.Seed+uint64(idx)))
		}(i)
	}
	wg.Wait()
}
