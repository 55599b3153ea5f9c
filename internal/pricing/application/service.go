// Package application 定价服务的应用层：装配领域定价器、
// 仓储、缓存与事件发布，对接口层暴露用例。
package application

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/xerrors"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// ResultCache 最新定价结果的读穿缓存端口，由 Redis 实现。
type ResultCache interface {
	SaveResult(ctx context.Context, result *domain.PricingResult) error
	GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error)
}

// PricingService 定价应用服务。
type PricingService struct {
	repo       domain.PricingRepository
	cache      ResultCache
	publisher  domain.EventPublisher
	analytical *domain.AnalyticalPricer
}

// NewPricingService 创建定价应用服务。
func NewPricingService(repo domain.PricingRepository, cache ResultCache, publisher domain.EventPublisher) *PricingService {
	return &PricingService{
		repo:       repo,
		cache:      cache,
		publisher:  publisher,
		analytical: domain.NewAnalyticalPricer(),
	}
}

const (
	defaultPaths = 10000
	defaultSteps = 252
	defaultSeed  = 42
	atmThreshold = 0.05
)

// buildParams 组装模型参数：显式参数优先，否则按历史波动率取默认值。
func buildParams(spot, t, rate, histVol float64, dto *HestonParamsDTO) domain.HestonParams {
	if dto == nil {
		return domain.DefaultParams(spot, histVol, t, rate)
	}
	return domain.HestonParams{
		S0:    spot,
		V0:    dto.V0,
		Kappa: dto.Kappa,
		Theta: dto.Theta,
		Sigma: dto.Sigma,
		Rho:   dto.Rho,
		R:     rate,
		T:     t,
	}
}

// PriceOption 为单份期权定价，保存历史并发布定价完成事件。
func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PriceDTO, error) {
	params := buildParams(cmd.Spot, cmd.TimeToMaturity, cmd.RiskFreeRate, cmd.HistoricalVol, cmd.Params)
	if err := params.ValidateBounds(); err != nil {
		return nil, err
	}

	model := domain.PricingModel(cmd.Model)
	if cmd.Model == "" {
		model = domain.ModelCarrMadan
	}
	optionType := domain.OptionType(cmd.OptionType)

	price, err := s.price(params, optionType, model, cmd)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &domain.PricingResult{
		Symbol:          cmd.Symbol,
		OptionType:      optionType,
		StrikePrice:     decimal.NewFromFloat(cmd.Strike),
		OptionPrice:     decimal.NewFromFloat(price),
		UnderlyingPrice: decimal.NewFromFloat(cmd.Spot),
		PricingModel:    model,
		CalculatedAt:    now,
	}
	// 结果落库与事件写入发件箱在同一事务内提交。
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, result); err != nil {
			return err
		}
		return s.publisher.PublishOptionPriced(txCtx, domain.OptionPricedEvent{
			Symbol:          cmd.Symbol,
			OptionType:      optionType,
			StrikePrice:     cmd.Strike,
			OptionPrice:     price,
			UnderlyingPrice: cmd.Spot,
			TimeToMaturity:  cmd.TimeToMaturity,
			RiskFreeRate:    cmd.RiskFreeRate,
			PricingModel:    model,
			CalculatedAt:    now.UnixMilli(),
			OccurredOn:      now,
		})
	})
	if err != nil {
		return nil, xerrors.WrapInternal(err, "save pricing result")
	}
	if err := s.cache.SaveResult(ctx, result); err != nil {
		logging.Warn(ctx, "cache pricing result failed", "symbol", cmd.Symbol, "error", err)
	}

	return &PriceDTO{
		Symbol:       cmd.Symbol,
		OptionType:   string(optionType),
		Model:        string(model),
		Strike:       decimal.NewFromFloat(cmd.Strike),
		Spot:         decimal.NewFromFloat(cmd.Spot),
		Price:        decimal.NewFromFloat(price),
		Moneyness:    string(domain.ClassifyMoneyness(cmd.Strike, cmd.Spot, atmThreshold)),
		FellerHolds:  params.SatisfiesFeller(),
		FellerRatio:  params.FellerRatio(),
		CalculatedAt: now,
	}, nil
}

func (s *PricingService) price(params domain.HestonParams, optionType domain.OptionType, model domain.PricingModel, cmd PriceOptionCommand) (float64, error) {
	switch model {
	case domain.ModelMonteCarlo:
		mc, err := domain.NewMonteCarloUnchecked(params, simulationConfig(cmd.Paths, cmd.Steps, cmd.Seed, cmd.Antithetic))
		if err != nil {
			return 0, err
		}
		if optionType == domain.OptionTypePut {
			return mc.PricePut(cmd.Strike), nil
		}
		return mc.PriceCall(cmd.Strike), nil

	case domain.ModelBlackScholes:
		if optionType == domain.OptionTypePut {
			return domain.BlackScholesPut(params.S0, cmd.Strike, params.T, params.R, approxVol(params)), nil
		}
		return domain.BlackScholesCall(params.S0, cmd.Strike, params.T, params.R, approxVol(params)), nil

	case domain.ModelCarrMadan:
		fallthrough
	default:
		if optionType == domain.OptionTypePut {
			return s.analytical.PricePut(params, cmd.Strike), nil
		}
		return s.analytical.PriceCall(params, cmd.Strike), nil
	}
}

// CalculateGreeks 计算希腊字母，保存历史并发布事件。
func (s *PricingService) CalculateGreeks(ctx context.Context, cmd PriceOptionCommand) (*GreeksDTO, error) {
	params := buildParams(cmd.Spot, cmd.TimeToMaturity, cmd.RiskFreeRate, cmd.HistoricalVol, cmd.Params)
	if err := params.ValidateBounds(); err != nil {
		return nil, err
	}

	model := domain.PricingModel(cmd.Model)
	if cmd.Model == "" {
		model = domain.ModelCarrMadan
	}
	optionType := domain.OptionType(cmd.OptionType)

	var greeks domain.Greeks
	switch model {
	case domain.ModelMonteCarlo:
		mc, err := domain.NewMonteCarloUnchecked(params, simulationConfig(cmd.Paths, cmd.Steps, cmd.Seed, cmd.Antithetic))
		if err != nil {
			return nil, err
		}
		if optionType == domain.OptionTypePut {
			greeks = mc.GreeksPut(cmd.Strike)
		} else {
			greeks = mc.GreeksCall(cmd.Strike)
		}
	default:
		if optionType == domain.OptionTypePut {
			greeks = s.analytical.GreeksPut(params, cmd.Strike)
		} else {
			greeks = s.analytical.GreeksCall(params, cmd.Strike)
		}
	}

	now := time.Now()
	result := &domain.PricingResult{
		Symbol:          cmd.Symbol,
		OptionType:      optionType,
		StrikePrice:     decimal.NewFromFloat(cmd.Strike),
		OptionPrice:     decimal.NewFromFloat(greeks.Price),
		UnderlyingPrice: decimal.NewFromFloat(cmd.Spot),
		Delta:           decimal.NewFromFloat(greeks.Delta),
		Gamma:           decimal.NewFromFloat(greeks.Gamma),
		Theta:           decimal.NewFromFloat(greeks.Theta),
		Vega:            decimal.NewFromFloat(greeks.Vega),
		Rho:             decimal.NewFromFloat(greeks.Rho),
		PricingModel:    model,
		CalculatedAt:    now,
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, result); err != nil {
			return err
		}
		return s.publisher.PublishGreeksCalculated(txCtx, domain.GreeksCalculatedEvent{
			Symbol:          cmd.Symbol,
			OptionType:      optionType,
			StrikePrice:     cmd.Strike,
			UnderlyingPrice: cmd.Spot,
			Delta:           greeks.Delta,
			Gamma:           greeks.Gamma,
			Vega:            greeks.Vega,
			Theta:           greeks.Theta,
			Rho:             greeks.Rho,
			PricingModel:    model,
			CalculatedAt:    now.UnixMilli(),
			OccurredOn:      now,
		})
	})
	if err != nil {
		return nil, xerrors.WrapInternal(err, "save greeks result")
	}
	if err := s.cache.SaveResult(ctx, result); err != nil {
		logging.Warn(ctx, "cache greeks result failed", "symbol", cmd.Symbol, "error", err)
	}

	return &GreeksDTO{
		Symbol:       cmd.Symbol,
		OptionType:   string(optionType),
		Model:        string(model),
		Strike:       decimal.NewFromFloat(cmd.Strike),
		Price:        decimal.NewFromFloat(greeks.Price),
		Delta:        greeks.Delta,
		Gamma:        greeks.Gamma,
		Vega:         greeks.Vega,
		Theta:        greeks.Theta,
		Rho:          greeks.Rho,
		CalculatedAt: now,
	}, nil
}

// Simulate 运行蒙特卡洛路径模拟并返回终端分布摘要。
func (s *PricingService) Simulate(ctx context.Context, cmd SimulateCommand) (*DistributionDTO, error) {
	params := buildParams(cmd.Spot, cmd.TimeToMaturity, cmd.RiskFreeRate, cmd.HistoricalVol, cmd.Params)
	if err := params.ValidateBounds(); err != nil {
		return nil, err
	}

	cfg := simulationConfig(cmd.Paths, cmd.Steps, cmd.Seed, cmd.Antithetic)
	mc, err := domain.NewMonteCarloUnchecked(params, cfg)
	if err != nil {
		return nil, err
	}

	dist := mc.TerminalDistribution(cmd.Bins)

	now := time.Now()
	if err := s.publisher.PublishSimulationCompleted(ctx, domain.SimulationCompletedEvent{
		Symbol:      cmd.Symbol,
		Paths:       cfg.Paths,
		Steps:       cfg.Steps,
		Seed:        cfg.Seed,
		Antithetic:  cfg.Antithetic,
		MeanFinal:   dist.Mean,
		StdDevFinal: dist.StdDev,
		FellerHolds: params.SatisfiesFeller(),
		CompletedAt: now.UnixMilli(),
		OccurredOn:  now,
	}); err != nil {
		logging.Warn(ctx, "publish simulation event failed", "symbol", cmd.Symbol, "error", err)
	}

	return &DistributionDTO{
		Symbol:   cmd.Symbol,
		Paths:    cfg.Paths,
		Steps:    cfg.Steps,
		Mean:     dist.Mean,
		Median:   dist.Median,
		Min:      dist.Min,
		Max:      dist.Max,
		StdDev:   dist.StdDev,
		BinEdges: dist.BinEdges,
		Counts:   dist.Counts,
	}, nil
}

// GetLatest 查询最新定价结果，先读缓存，未命中回源数据库。
func (s *PricingService) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if cached, err := s.cache.GetLatestResult(ctx, symbol); err == nil && cached != nil {
		return cached, nil
	}
	result, err := s.repo.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, xerrors.NotFound("no pricing result for symbol " + symbol)
	}
	return result, nil
}

// GetHistory 查询定价历史。
func (s *PricingService) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.GetHistory(ctx, symbol, limit)
}

func simulationConfig(paths, steps int, seed uint64, antithetic bool) domain.SimulationConfig {
	if paths <= 0 {
		paths = defaultPaths
	}
	if steps <= 0 {
		steps = defaultSteps
	}
	if seed == 0 {
		seed = defaultSeed
	}
	return domain.SimulationConfig{Paths: paths, Steps: steps, Seed: seed, Antithetic: antithetic}
}

func approxVol(params domain.HestonParams) float64 {
	return math.Sqrt(math.Max(params.V0, 0))
}
