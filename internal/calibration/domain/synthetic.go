package domain

import pricing "github.com/wyfcoding/optionpricing/internal/pricing/domain"

// SyntheticChain 用已知参数生成合成期权链，3% 比例价差。
// 校准服务的演练端点和端到端回归都以它为基准：
// 从真实参数出发校准合成链，报告的 RMSE 应接近零。
func SyntheticChain(spot, rate float64, trueParams CalibParams, strikes, maturities []float64) []MarketOption {
	pricer := pricing.NewAnalyticalPricer()
	chain := make([]MarketOption, 0, len(strikes)*len(maturities))

	for _, strike := range strikes {
		for _, maturity := range maturities {
			heston := trueParams.ToHeston(spot, rate, maturity)
			truePrice := pricer.PriceCall(heston, strike)

			spread := truePrice * 0.03
			chain = append(chain, MarketOption{
				Strike:       strike,
				TimeToExpiry: maturity,
				Bid:          truePrice - spread/2,
				Ask:          truePrice + spread/2,
				Type:         pricing.OptionTypeCall,
				Volume:       100,
				OpenInterest: 500,
			})
		}
	}
	return chain
}
