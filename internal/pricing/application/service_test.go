package application

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

type fakeRepo struct {
	saved   []*domain.PricingResult
	latest  *domain.PricingResult
	history []*domain.PricingResult
	saveErr error

	lastHistoryLimit int
}

func (f *fakeRepo) Save(ctx context.Context, result *domain.PricingResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakeRepo) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return f.latest, nil
}

func (f *fakeRepo) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	f.lastHistoryLimit = limit
	return f.history, nil
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCache struct {
	saved   []*domain.PricingResult
	latest  *domain.PricingResult
	saveErr error
	getErr  error
}

func (f *fakeCache) SaveResult(ctx context.Context, result *domain.PricingResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakeCache) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.latest, nil
}

type fakePublisher struct {
	priced      []domain.OptionPricedEvent
	greeks      []domain.GreeksCalculatedEvent
	simulations []domain.SimulationCompletedEvent
}

func (f *fakePublisher) PublishOptionPriced(ctx context.Context, event domain.OptionPricedEvent) error {
	f.priced = append(f.priced, event)
	return nil
}

func (f *fakePublisher) PublishGreeksCalculated(ctx context.Context, event domain.GreeksCalculatedEvent) error {
	f.greeks = append(f.greeks, event)
	return nil
}

func (f *fakePublisher) PublishSimulationCompleted(ctx context.Context, event domain.SimulationCompletedEvent) error {
	f.simulations = append(f.simulations, event)
	return nil
}

func newTestService() (*PricingService, *fakeRepo, *fakeCache, *fakePublisher) {
	repo := &fakeRepo{}
	cache := &fakeCache{}
	publisher := &fakePublisher{}
	return NewPricingService(repo, cache, publisher), repo, cache, publisher
}

func atmCommand() PriceOptionCommand {
	return PriceOptionCommand{
		Symbol:         "AAPL",
		OptionType:     "CALL",
		Strike:         100,
		Spot:           100,
		TimeToMaturity: 1.0,
		RiskFreeRate:   0.05,
		Params: &HestonParamsDTO{
			V0: 0.04, Kappa: 2.0, Theta: 0.04, Sigma: 0.3, Rho: -0.7,
		},
	}
}

func TestPriceOptionDefaultsToCarrMadan(t *testing.T) {
	svc, repo, cache, publisher := newTestService()

	dto, err := svc.PriceOption(context.Background(), atmCommand())
	if err != nil {
		t.Fatalf("PriceOption: %v", err)
	}
	if dto.Model != string(domain.ModelCarrMadan) {
		t.Fatalf("model = %s, want %s", dto.Model, domain.ModelCarrMadan)
	}
	price, _ := dto.Price.Float64()
	if price < 5 || price > 30 {
		t.Fatalf("ATM price %.4f outside plausible band", price)
	}
	if dto.Moneyness != string(domain.MoneynessATM) {
		t.Fatalf("moneyness = %s, want ATM", dto.Moneyness)
	}
	if !dto.FellerHolds {
		t.Fatalf("Feller should hold for 2*2*0.04 > 0.3^2")
	}

	if len(repo.saved) != 1 {
		t.Fatalf("repo saved %d results, want 1", len(repo.saved))
	}
	if len(cache.saved) != 1 {
		t.Fatalf("cache saved %d results, want 1", len(cache.saved))
	}
	if len(publisher.priced) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.priced))
	}
	if publisher.priced[0].Symbol != "AAPL" {
		t.Fatalf("event symbol = %s", publisher.priced[0].Symbol)
	}
}

func TestPriceOptionRejectsInvalidParams(t *testing.T) {
	svc, repo, _, publisher := newTestService()

	cmd := atmCommand()
	cmd.Spot = -1

	if _, err := svc.PriceOption(context.Background(), cmd); err == nil {
		t.Fatalf("expected validation error for negative spot")
	}
	if len(repo.saved) != 0 {
		t.Fatalf("nothing should be persisted on validation failure")
	}
	if len(publisher.priced) != 0 {
		t.Fatalf("no event should be published on validation failure")
	}
}

func TestPriceOptionSurvivesCacheFailure(t *testing.T) {
	svc, repo, cache, _ := newTestService()
	cache.saveErr = errors.New("redis down")

	if _, err := svc.PriceOption(context.Background(), atmCommand()); err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("repo save should still happen")
	}
}

func TestPriceOptionFailsOnRepoError(t *testing.T) {
	svc, repo, _, publisher := newTestService()
	repo.saveErr = errors.New("mysql down")

	if _, err := svc.PriceOption(context.Background(), atmCommand()); err == nil {
		t.Fatalf("expected error when the repository fails")
	}
	if len(publisher.priced) != 0 {
		t.Fatalf("no event should be published when persistence fails")
	}
}

func TestPriceOptionMonteCarloDeterministic(t *testing.T) {
	svc, _, _, _ := newTestService()

	cmd := atmCommand()
	cmd.Model = string(domain.ModelMonteCarlo)
	cmd.Paths = 2000
	cmd.Steps = 50
	cmd.Seed = 7

	first, err := svc.PriceOption(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first pricing: %v", err)
	}
	second, err := svc.PriceOption(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second pricing: %v", err)
	}
	if !first.Price.Equal(second.Price) {
		t.Fatalf("same seed must reproduce the same price: %s vs %s", first.Price, second.Price)
	}
}

func TestPriceOptionDefaultParamsFromHistoricalVol(t *testing.T) {
	svc, _, _, _ := newTestService()

	cmd := atmCommand()
	cmd.Params = nil
	cmd.HistoricalVol = 0.2
	cmd.Model = string(domain.ModelBlackScholes)

	dto, err := svc.PriceOption(context.Background(), cmd)
	if err != nil {
		t.Fatalf("PriceOption: %v", err)
	}
	// BS(100,100,1,5%,20%) ≈ 10.45
	price, _ := dto.Price.Float64()
	if price < 10.0 || price > 11.0 {
		t.Fatalf("BS price %.4f, want ≈10.45", price)
	}
}

func TestCalculateGreeksPublishesEvent(t *testing.T) {
	svc, repo, _, publisher := newTestService()

	dto, err := svc.CalculateGreeks(context.Background(), atmCommand())
	if err != nil {
		t.Fatalf("CalculateGreeks: %v", err)
	}
	if dto.Delta <= 0 || dto.Delta >= 1 {
		t.Fatalf("call delta = %.4f, want in (0,1)", dto.Delta)
	}
	if dto.Vega <= 0 {
		t.Fatalf("vega = %.4f, want positive", dto.Vega)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("greeks result should be persisted")
	}
	if len(publisher.greeks) != 1 {
		t.Fatalf("greeks event should be published")
	}
}

func TestSimulateReturnsDistribution(t *testing.T) {
	svc, _, _, publisher := newTestService()

	dto, err := svc.Simulate(context.Background(), SimulateCommand{
		Symbol:         "AAPL",
		Spot:           100,
		TimeToMaturity: 1.0,
		RiskFreeRate:   0.05,
		Params:         &HestonParamsDTO{V0: 0.04, Kappa: 2.0, Theta: 0.04, Sigma: 0.3, Rho: -0.7},
		Paths:          500,
		Steps:          50,
		Seed:           11,
		Bins:           10,
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if dto.Paths != 500 || dto.Steps != 50 {
		t.Fatalf("config echo mismatch: %d paths, %d steps", dto.Paths, dto.Steps)
	}
	if len(dto.BinEdges) != 11 || len(dto.Counts) != 10 {
		t.Fatalf("histogram shape: %d edges, %d counts", len(dto.BinEdges), len(dto.Counts))
	}
	total := 0
	for _, c := range dto.Counts {
		total += c
	}
	if total != 500 {
		t.Fatalf("counts sum to %d, want 500", total)
	}
	if len(publisher.simulations) != 1 {
		t.Fatalf("simulation event should be published")
	}
}

func TestGetLatestPrefersCache(t *testing.T) {
	svc, repo, cache, _ := newTestService()
	cached := &domain.PricingResult{Symbol: "AAPL"}
	cache.latest = cached
	repo.latest = &domain.PricingResult{Symbol: "stale"}

	got, err := svc.GetLatest(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got != cached {
		t.Fatalf("cache hit should short-circuit the repository")
	}
}

func TestGetLatestFallsBackToRepo(t *testing.T) {
	svc, repo, cache, _ := newTestService()
	cache.getErr = errors.New("miss")
	repo.latest = &domain.PricingResult{Symbol: "AAPL"}

	got, err := svc.GetLatest(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got != repo.latest {
		t.Fatalf("expected repository result on cache miss")
	}
}

func TestGetLatestNotFound(t *testing.T) {
	svc, _, cache, _ := newTestService()
	cache.getErr = errors.New("miss")

	if _, err := svc.GetLatest(context.Background(), "UNKNOWN"); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestGetHistoryClampsLimit(t *testing.T) {
	svc, repo, _, _ := newTestService()

	if _, err := svc.GetHistory(context.Background(), "AAPL", 0); err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if repo.lastHistoryLimit != 50 {
		t.Fatalf("limit = %d, want default 50", repo.lastHistoryLimit)
	}

	if _, err := svc.GetHistory(context.Background(), "AAPL", 1000); err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if repo.lastHistoryLimit != 50 {
		t.Fatalf("oversized limit should clamp to 50, got %d", repo.lastHistoryLimit)
	}
}
