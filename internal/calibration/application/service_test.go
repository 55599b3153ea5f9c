package application

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/optionpricing/internal/calibration/domain"
)

type fakeRepo struct {
	saved   []*domain.CalibrationRecord
	latest  *domain.CalibrationRecord
	history []*domain.CalibrationRecord
	saveErr error

	lastHistoryLimit int
}

func (f *fakeRepo) Save(ctx context.Context, record *domain.CalibrationRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, record)
	return nil
}

func (f *fakeRepo) GetLatest(ctx context.Context, symbol string) (*domain.CalibrationRecord, error) {
	return f.latest, nil
}

func (f *fakeRepo) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.CalibrationRecord, error) {
	f.lastHistoryLimit = limit
	return f.history, nil
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePublisher struct {
	completed []domain.CalibrationCompletedEvent
	failed    []domain.CalibrationFailedEvent
}

func (f *fakePublisher) PublishCalibrationCompleted(ctx context.Context, event domain.CalibrationCompletedEvent) error {
	f.completed = append(f.completed, event)
	return nil
}

func (f *fakePublisher) PublishCalibrationFailed(ctx context.Context, event domain.CalibrationFailedEvent) error {
	f.failed = append(f.failed, event)
	return nil
}

func newTestService() (*CalibrationService, *fakeRepo, *fakePublisher) {
	repo := &fakeRepo{}
	publisher := &fakePublisher{}
	return NewCalibrationService(repo, publisher), repo, publisher
}

func trueParams() domain.CalibParams {
	return domain.CalibParams{Kappa: 2.0, Theta: 0.04, Sigma: 0.3, Rho: -0.7, V0: 0.04}
}

func TestDryRunRecoversKnownParams(t *testing.T) {
	svc, repo, publisher := newTestService()

	dto, err := svc.DryRun(context.Background(), DryRunCommand{
		Symbol:       "SPX",
		Spot:         100,
		RiskFreeRate: 0.05,
		TrueParams:   trueParams(),
	})
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if dto.FinalError > 0.05 {
		t.Fatalf("final error %.6f too large for a self-consistent chain", dto.FinalError)
	}
	if dto.OptionsUsed != 10 {
		t.Fatalf("default grid is 5 strikes x 2 maturities, used %d", dto.OptionsUsed)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("record should be persisted")
	}
	if len(publisher.completed) != 1 {
		t.Fatalf("completion event should be published")
	}
	if !dto.FellerHolds {
		t.Fatalf("fitted params near the truth should satisfy Feller")
	}
}

func TestCalibrateEmptyBasketFailsAndPublishes(t *testing.T) {
	svc, repo, publisher := newTestService()

	_, err := svc.Calibrate(context.Background(), CalibrateCommand{
		Symbol: "SPX",
		Spot:   100,
	})
	if err == nil {
		t.Fatalf("empty basket must fail")
	}
	if !errors.Is(err, domain.ErrEmptyBasket) {
		t.Fatalf("error = %v, want ErrEmptyBasket", err)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("nothing should be persisted on failure")
	}
	if len(publisher.failed) != 1 {
		t.Fatalf("failure event should be published")
	}
}

func TestCalibrateFiltersIlliquidQuotes(t *testing.T) {
	svc, _, publisher := newTestService()

	// 全部报价都过不了流动性闸门：成交量太低。
	options := []MarketOptionDTO{
		{Strike: 100, TimeToExpiry: 0.1, Bid: 9.5, Ask: 10.5, Type: "CALL", Volume: 1, OpenInterest: 10},
		{Strike: 105, TimeToExpiry: 0.1, Bid: 7.5, Ask: 8.5, Type: "CALL", Volume: 2, OpenInterest: 10},
	}

	_, err := svc.Calibrate(context.Background(), CalibrateCommand{
		Symbol:       "SPX",
		Spot:         100,
		RiskFreeRate: 0.05,
		Options:      options,
	})
	if err == nil {
		t.Fatalf("fully filtered basket must fail like an empty one")
	}
	if len(publisher.failed) != 1 {
		t.Fatalf("failure event should be published")
	}
}

func TestCalibrateSkipFilterUsesSyntheticQuotes(t *testing.T) {
	svc, repo, _ := newTestService()

	chain := domain.SyntheticChain(100, 0.05, trueParams(),
		[]float64{90, 95, 100, 105, 110}, []float64{0.25, 0.5})

	options := make([]MarketOptionDTO, 0, len(chain))
	for _, q := range chain {
		options = append(options, MarketOptionDTO{
			Strike:       q.Strike,
			TimeToExpiry: q.TimeToExpiry,
			Bid:          q.Bid,
			Ask:          q.Ask,
			Type:         string(q.Type),
			Volume:       q.Volume,
			OpenInterest: q.OpenInterest,
		})
	}

	guess := trueParams()
	dto, err := svc.Calibrate(context.Background(), CalibrateCommand{
		Symbol:       "SPX",
		Spot:         100,
		RiskFreeRate: 0.05,
		Options:      options,
		InitialGuess: &guess,
		SkipFilter:   true,
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if dto.FinalError > 0.05 {
		t.Fatalf("final error %.6f, want near zero on synthetic quotes", dto.FinalError)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("record should be persisted")
	}
}

func TestCalibrateFailsOnRepoError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.saveErr = errors.New("mysql down")

	guess := trueParams()
	_, err := svc.Calibrate(context.Background(), CalibrateCommand{
		Symbol:       "SPX",
		Spot:         100,
		RiskFreeRate: 0.05,
		Options: []MarketOptionDTO{
			{Strike: 100, TimeToExpiry: 0.25, Bid: 4.0, Ask: 4.2, Type: "CALL", Volume: 100, OpenInterest: 500},
			{Strike: 105, TimeToExpiry: 0.25, Bid: 2.0, Ask: 2.2, Type: "CALL", Volume: 100, OpenInterest: 500},
			{Strike: 95, TimeToExpiry: 0.5, Bid: 8.0, Ask: 8.4, Type: "CALL", Volume: 100, OpenInterest: 500},
		},
		InitialGuess: &guess,
		SkipFilter:   true,
	})
	if err == nil {
		t.Fatalf("expected error when the repository fails")
	}
}

func TestGetLatestNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.GetLatest(context.Background(), "UNKNOWN"); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestGetHistoryClampsLimit(t *testing.T) {
	svc, repo, _ := newTestService()

	if _, err := svc.GetHistory(context.Background(), "SPX", -1); err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if repo.lastHistoryLimit != 50 {
		t.Fatalf("limit = %d, want default 50", repo.lastHistoryLimit)
	}
}
