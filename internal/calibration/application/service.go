// Package application 校准服务的应用层：流动性过滤、参数拟合、
// 历史落库与事件发布。
package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/xerrors"

	"github.com/wyfcoding/optionpricing/internal/calibration/domain"
	pricing "github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// CalibrationService 校准应用服务。
type CalibrationService struct {
	repo       domain.CalibrationRepository
	publisher  domain.EventPublisher
	calibrator *domain.Calibrator
	filter     domain.LiquidityFilter
}

// NewCalibrationService 创建校准应用服务。
func NewCalibrationService(repo domain.CalibrationRepository, publisher domain.EventPublisher) *CalibrationService {
	return &CalibrationService{
		repo:       repo,
		publisher:  publisher,
		calibrator: domain.NewCalibrator(),
		filter:     domain.DefaultLiquidityFilter(),
	}
}

// Calibrate 过滤报价篮子并拟合 Heston 参数。
// 过滤后篮子为空视同空输入，直接失败而不产出无意义的结果。
func (s *CalibrationService) Calibrate(ctx context.Context, cmd CalibrateCommand) (*CalibrationDTO, error) {
	basket := make([]domain.MarketOption, 0, len(cmd.Options))
	for _, o := range cmd.Options {
		basket = append(basket, domain.MarketOption{
			Strike:       o.Strike,
			TimeToExpiry: o.TimeToExpiry,
			Bid:          o.Bid,
			Ask:          o.Ask,
			Type:         pricing.OptionType(o.Type),
			Volume:       o.Volume,
			OpenInterest: o.OpenInterest,
		})
	}

	if !cmd.SkipFilter {
		before := len(basket)
		basket = s.filter.Apply(basket)
		logging.Info(ctx, "liquidity filter applied",
			"symbol", cmd.Symbol, "before", before, "after", len(basket))
	}

	initial := s.initialGuess(cmd)
	result, err := s.calibrator.Calibrate(cmd.Spot, cmd.RiskFreeRate, basket, initial)
	if err != nil {
		s.publishFailure(ctx, cmd.Symbol, err)
		return nil, err
	}

	return s.record(ctx, cmd.Symbol, cmd.Spot, cmd.RiskFreeRate, len(basket), result)
}

// DryRun 用已知参数生成合成链并校准，回报拟合质量。
func (s *CalibrationService) DryRun(ctx context.Context, cmd DryRunCommand) (*CalibrationDTO, error) {
	strikes := cmd.Strikes
	if len(strikes) == 0 {
		strikes = []float64{
			cmd.Spot * 0.9, cmd.Spot * 0.95, cmd.Spot, cmd.Spot * 1.05, cmd.Spot * 1.1,
		}
	}
	maturities := cmd.Maturities
	if len(maturities) == 0 {
		maturities = []float64{0.25, 0.5}
	}

	chain := domain.SyntheticChain(cmd.Spot, cmd.RiskFreeRate, cmd.TrueParams, strikes, maturities)
	result, err := s.calibrator.Calibrate(cmd.Spot, cmd.RiskFreeRate, chain, cmd.TrueParams)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, cmd.Symbol, cmd.Spot, cmd.RiskFreeRate, len(chain), result)
}

// GetLatest 查询最新校准结果。
func (s *CalibrationService) GetLatest(ctx context.Context, symbol string) (*domain.CalibrationRecord, error) {
	record, err := s.repo.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, xerrors.NotFound("no calibration record for symbol " + symbol)
	}
	return record, nil
}

// GetHistory 查询校准历史。
func (s *CalibrationService) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.CalibrationRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.GetHistory(ctx, symbol, limit)
}

func (s *CalibrationService) initialGuess(cmd CalibrateCommand) domain.CalibParams {
	if cmd.InitialGuess != nil {
		return *cmd.InitialGuess
	}
	vol := cmd.HistoricalVol
	if vol <= 0 {
		vol = 0.2
	}
	defaults := pricing.DefaultParams(cmd.Spot, vol, 1.0, cmd.RiskFreeRate)
	return domain.CalibParams{
		Kappa: defaults.Kappa,
		Theta: defaults.Theta,
		Sigma: defaults.Sigma,
		Rho:   defaults.Rho,
		V0:    defaults.V0,
	}
}

func (s *CalibrationService) record(ctx context.Context, symbol string, spot, rate float64, optionCount int, result domain.CalibrationResult) (*CalibrationDTO, error) {
	now := time.Now()
	entity := &domain.CalibrationRecord{
		Symbol:       symbol,
		Spot:         decimal.NewFromFloat(spot),
		RiskFreeRate: decimal.NewFromFloat(rate),
		Kappa:        decimal.NewFromFloat(result.Params.Kappa),
		Theta:        decimal.NewFromFloat(result.Params.Theta),
		Sigma:        decimal.NewFromFloat(result.Params.Sigma),
		Rho:          decimal.NewFromFloat(result.Params.Rho),
		V0:           decimal.NewFromFloat(result.Params.V0),
		InitialError: decimal.NewFromFloat(result.InitialError),
		FinalError:   decimal.NewFromFloat(result.FinalError),
		Iterations:   result.Iterations,
		Converged:    result.Converged,
		Success:      result.Success,
		OptionCount:  optionCount,
		CalibratedAt: now,
	}
	// 记录与完成事件在同一事务内落库，由发件箱中继异步投递。
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, entity); err != nil {
			return err
		}
		return s.publisher.PublishCalibrationCompleted(txCtx, domain.CalibrationCompletedEvent{
			Symbol:       symbol,
			Kappa:        result.Params.Kappa,
			Theta:        result.Params.Theta,
			Sigma:        result.Params.Sigma,
			Rho:          result.Params.Rho,
			V0:           result.Params.V0,
			InitialError: result.InitialError,
			FinalError:   result.FinalError,
			Iterations:   result.Iterations,
			Converged:    result.Converged,
			Success:      result.Success,
			OptionCount:  optionCount,
			CompletedAt:  now.UnixMilli(),
			OccurredOn:   now,
		})
	})
	if err != nil {
		return nil, xerrors.WrapInternal(err, "save calibration record")
	}

	fitted := result.Params.ToHeston(spot, rate, 1.0)
	return &CalibrationDTO{
		Symbol:       symbol,
		Params:       result.Params,
		FellerHolds:  fitted.SatisfiesFeller(),
		InitialError: result.InitialError,
		FinalError:   result.FinalError,
		Iterations:   result.Iterations,
		Converged:    result.Converged,
		Success:      result.Success,
		OptionsUsed:  optionCount,
		CalibratedAt: now,
	}, nil
}

func (s *CalibrationService) publishFailure(ctx context.Context, symbol string, cause error) {
	now := time.Now()
	if err := s.publisher.PublishCalibrationFailed(ctx, domain.CalibrationFailedEvent{
		Symbol:     symbol,
		Reason:     cause.Error(),
		OccurredAt: now.UnixMilli(),
		OccurredOn: now,
	}); err != nil {
		logging.Warn(ctx, "publish calibration failure event failed", "symbol", symbol, "error", err)
	}
}
