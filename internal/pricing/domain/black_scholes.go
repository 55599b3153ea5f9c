package domain

import "math"

// BlackScholesCall 欧式看涨期权的 Black-Scholes 价格（无分红）。
// Carr-Madan 积分退化时的回退路径，也用作 vol-of-vol 极限的参照。
func BlackScholesCall(spot, strike, t, r, sigma float64) float64 {
	if t <= 0 {
		return math.Max(spot-strike, 0)
	}
	if sigma <= 0 {
		return math.Max(spot-strike*math.Exp(-r*t), 0)
	}

	d1 := (math.Log(spot/strike) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return spot*normCDF(d1) - strike*math.Exp(-r*t)*normCDF(d2)
}

// BlackScholesPut 欧式看跌期权的 Black-Scholes 价格（无分红）。
func BlackScholesPut(spot, strike, t, r, sigma float64) float64 {
	if t <= 0 {
		return math.Max(strike-spot, 0)
	}
	if sigma <= 0 {
		return math.Max(strike*math.Exp(-r*t)-spot, 0)
	}

	d1 := (math.Log(spot/strike) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return strike*math.Exp(-r*t)*normCDF(-d2) - spot*normCDF(-d1)
}

// normCDF 标准正态分布累计分布函数：N(x) = 0.5·(1 + erf(x/√2))。
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
