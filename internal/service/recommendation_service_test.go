package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/pkg/cache"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/telegram"
	"golang-stock-analysis/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecRepo struct {
	mu   sync.Mutex
	recs []*model.DailyRecommendation

	createErr error
}

func (f *fakeRecRepo) Create(ctx context.Context, rec *model.DailyRecommendation, opts ...utils.DBOption) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *rec
	f.recs = append(f.recs, &copied)
	return nil
}

func (f *fakeRecRepo) FindActiveByDate(ctx context.Context, date string, opts ...utils.DBOption) (*model.DailyRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.recs {
		if rec.RecommendationDate == date && rec.Status == model.RecommendationActive {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRecRepo) FindByDate(ctx context.Context, date string) ([]model.DailyRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DailyRecommendation
	for _, rec := range f.recs {
		if rec.RecommendationDate == date {
			out = append(out, *rec)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Version > out[i].Version {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeRecRepo) MaxVersionByDate(ctx context.Context, date string, opts ...utils.DBOption) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	maxVersion := 0
	for _, rec := range f.recs {
		if rec.RecommendationDate == date && rec.Version > maxVersion {
			maxVersion = rec.Version
		}
	}
	return maxVersion, nil
}

func (f *fakeRecRepo) ExpireActiveByDate(ctx context.Context, date string, opts ...utils.DBOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, rec := range f.recs {
		if rec.RecommendationDate == date && rec.Status == model.RecommendationActive {
			rec.Status = model.RecommendationExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeRecRepo) CountByDate(ctx context.Context, date string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, rec := range f.recs {
		if rec.RecommendationDate == date {
			n++
		}
	}
	return n, nil
}

func (f *fakeRecRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.recs)), nil
}

func (f *fakeRecRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error) {
	return 0, nil
}

func (f *fakeRecRepo) activeCount(date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.recs {
		if rec.RecommendationDate == date && rec.Status == model.RecommendationActive {
			n++
		}
	}
	return n
}

// fakeUnitOfWork runs the closure without a transaction; the fake repos are
// already atomic enough for tests.
type fakeUnitOfWork struct{}

func (f *fakeUnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	return fn()
}

func pickResponse(codes ...string) *dto.AIStockPickResponse {
	resp := &dto.AIStockPickResponse{
		MarketOverview: "Indexes closed higher on broad volume.",
		Summary:        "Constructive session.",
		AnalystView:    "Stay selective.",
		RiskWarning:    "Watch policy headlines.",
	}
	for _, code := range codes {
		resp.Stocks = append(resp.Stocks, dto.AIStockPick{
			StockCode:        code,
			StockName:        "Stock " + code,
			Sector:           "Banking",
			Rating:           "RECOMMEND",
			Score:            7.5,
			TargetPrice:      12,
			CurrentPrice:     10,
			RiskLevel:        "MEDIUM",
			InvestmentPeriod: "SHORT",
			IsHot:            true,
		})
	}
	return resp
}

type recommendationFixture struct {
	svc     RecommendationService
	recRepo *fakeRecRepo
	aiRepo  *fakeAIRepo
}

func newRecommendationFixture(t *testing.T) *recommendationFixture {
	t.Helper()

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Cache.DefaultExpiration = time.Minute
	cfg.Cache.CleanupInterval = time.Minute

	inmemoryCache := cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval)
	inmemoryCache.Flush()

	notifier, err := telegram.NewNotifier(&cfg.Telegram, log)
	require.NoError(t, err)

	recRepo := &fakeRecRepo{}
	aiRepo := &fakeAIRepo{
		pickResp: pickResponse("600000", "000001"),
		pickRaw:  json.RawMessage(`{"stocks":[]}`),
	}

	svc := NewRecommendationService(cfg, log, recRepo, aiRepo, &fakeUnitOfWork{}, inmemoryCache, notifier)
	return &recommendationFixture{svc: svc, recRepo: recRepo, aiRepo: aiRepo}
}

func TestRecommendationService_NeedsUpdate(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	needsUpdate, err := fx.svc.NeedsUpdate(ctx)
	require.NoError(t, err)
	assert.True(t, needsUpdate)

	_, err = fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)

	needsUpdate, err = fx.svc.NeedsUpdate(ctx)
	require.NoError(t, err)
	assert.False(t, needsUpdate)
}

func TestRecommendationService_Generate(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	rec, err := fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)

	today := utils.TodayMarketDate()
	assert.Equal(t, today, rec.RecommendationDate)
	assert.Equal(t, model.RecommendationActive, rec.Status)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, "rec_"+today+"_v1", rec.RecommendationID)
	require.Len(t, rec.Stocks, 2)
	assert.Equal(t, model.RatingRecommend, rec.Stocks[0].Rating)
	assert.Equal(t, 0, rec.Stocks[0].SortOrder)
	assert.Equal(t, 1, rec.Stocks[1].SortOrder)
	// derived from target vs current price
	assert.InDelta(t, 20.0, rec.Stocks[0].ExpectedReturnPct, 1e-9)
}

func TestRecommendationService_Generate_VersioningKeepsOneActive(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	first, err := fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)
	second, err := fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	today := utils.TodayMarketDate()
	assert.Equal(t, 1, fx.recRepo.activeCount(today))

	active, err := fx.recRepo.FindActiveByDate(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.RecommendationID, active.RecommendationID)
}

func TestRecommendationService_Generate_UpstreamFailure(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	fx.aiRepo.pickErr = dto.NewUpstreamError(dto.UpstreamTransport, errors.New("connection refused"))

	_, err := fx.svc.GenerateDailyRecommendation(ctx)
	assert.ErrorIs(t, err, dto.ErrGenerationFailed)

	// nothing persisted on failure
	count, err := fx.recRepo.CountByDate(ctx, utils.TodayMarketDate())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecommendationService_Generate_EmptyStockList(t *testing.T) {
	fx := newRecommendationFixture(t)

	fx.aiRepo.pickResp = &dto.AIStockPickResponse{}

	_, err := fx.svc.GenerateDailyRecommendation(context.Background())
	assert.ErrorIs(t, err, dto.ErrGenerationFailed)
}

func TestRecommendationService_Generate_PersistFailure(t *testing.T) {
	fx := newRecommendationFixture(t)

	fx.recRepo.createErr = errors.New("constraint violation")

	_, err := fx.svc.GenerateDailyRecommendation(context.Background())
	assert.ErrorIs(t, err, dto.ErrGenerationFailed)
}

func TestRecommendationService_GetTodayRecommendation(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.GetTodayRecommendation(ctx)
	assert.ErrorIs(t, err, dto.ErrRecommendationNotFound)

	generated, err := fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)

	got, err := fx.svc.GetTodayRecommendation(ctx)
	require.NoError(t, err)
	assert.Equal(t, generated.RecommendationID, got.RecommendationID)
}

func TestRecommendationService_GetRecommendationByDate(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.GetRecommendationByDate(ctx, "2020-01-01")
	assert.ErrorIs(t, err, dto.ErrRecommendationNotFound)

	_, err = fx.svc.GetRecommendationByDate(ctx, "not-a-date")
	assert.Error(t, err)

	generated, err := fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)

	got, err := fx.svc.GetRecommendationByDate(ctx, generated.RecommendationDate)
	require.NoError(t, err)
	assert.Equal(t, generated.RecommendationID, got.RecommendationID)
}

func TestRecommendationService_GetRecommendationStatus(t *testing.T) {
	fx := newRecommendationFixture(t)
	ctx := context.Background()

	status, err := fx.svc.GetRecommendationStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.HasToday)
	assert.Equal(t, utils.TodayMarketDate(), status.TodayDate)
	assert.Zero(t, status.RecordCount)

	_, err = fx.svc.GenerateDailyRecommendation(ctx)
	require.NoError(t, err)

	status, err = fx.svc.GetRecommendationStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasToday)
	assert.Equal(t, int64(1), status.RecordCount)
}
