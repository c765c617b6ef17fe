package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/internal/repository"
	"golang-stock-analysis/pkg/cache"
	"golang-stock-analysis/pkg/common"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/telegram"
	"golang-stock-analysis/pkg/utils"
)

type RecommendationService interface {
	NeedsUpdate(ctx context.Context) (bool, error)
	GenerateDailyRecommendation(ctx context.Context) (*model.DailyRecommendation, error)
	GetRecommendationByDate(ctx context.Context, date string) (*model.DailyRecommendation, error)
	GetTodayRecommendation(ctx context.Context) (*model.DailyRecommendation, error)
	GetRecommendationStatus(ctx context.Context) (*dto.RecommendationStatusResponse, error)
	CheckDailyStatus(ctx context.Context) error
}

type recommendationService struct {
	cfg           *config.Config
	log           *logger.Logger
	recRepo       repository.DailyRecommendationRepository
	aiRepo        repository.AIRepository
	uow           repository.UnitOfWork
	inmemoryCache cache.Cache
	notifier      *telegram.Notifier
}

func NewRecommendationService(
	cfg *config.Config,
	log *logger.Logger,
	recRepo repository.DailyRecommendationRepository,
	aiRepo repository.AIRepository,
	uow repository.UnitOfWork,
	inmemoryCache cache.Cache,
	notifier *telegram.Notifier,
) RecommendationService {
	return &recommendationService{
		cfg:           cfg,
		log:           log,
		recRepo:       recRepo,
		aiRepo:        aiRepo,
		uow:           uow,
		inmemoryCache: inmemoryCache,
		notifier:      notifier,
	}
}

// NeedsUpdate reports whether today has no active recommendation yet.
func (s *recommendationService) NeedsUpdate(ctx context.Context) (bool, error) {
	active, err := s.recRepo.FindActiveByDate(ctx, utils.TodayMarketDate())
	if err != nil {
		return false, fmt.Errorf("failed to check today's recommendation: %w", err)
	}
	return active == nil, nil
}

// GenerateDailyRecommendation produces a new versioned snapshot for today.
// The previous active version for the date is expired in the same
// transaction that activates the new one; on any failure nothing is
// persisted.
func (s *recommendationService) GenerateDailyRecommendation(ctx context.Context) (*model.DailyRecommendation, error) {
	date := utils.TodayMarketDate()

	aiResp, raw, err := s.aiRepo.PickDailyStocks(ctx, date)
	if err != nil {
		s.log.ErrorContextWithAlert(ctx, "Daily pick request failed",
			logger.StringField("date", date),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("%w: %v", dto.ErrGenerationFailed, err)
	}
	if len(aiResp.Stocks) == 0 {
		s.log.ErrorContextWithAlert(ctx, "Daily pick returned no stocks", logger.StringField("date", date))
		return nil, fmt.Errorf("%w: empty stock list", dto.ErrGenerationFailed)
	}

	rec := buildRecommendation(date, aiResp, raw)

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		maxVersion, err := s.recRepo.MaxVersionByDate(ctx, date, opts...)
		if err != nil {
			return fmt.Errorf("failed to read current version: %w", err)
		}

		expired, err := s.recRepo.ExpireActiveByDate(ctx, date, opts...)
		if err != nil {
			return fmt.Errorf("failed to expire previous version: %w", err)
		}
		if expired > 0 {
			s.log.InfoContext(ctx, "Expired previous recommendation",
				logger.StringField("date", date),
				logger.IntField("rows", int(expired)),
			)
		}

		rec.Version = maxVersion + 1
		rec.RecommendationID = fmt.Sprintf("rec_%s_v%d", date, rec.Version)
		return s.recRepo.Create(ctx, rec, opts...)
	})
	if err != nil {
		s.log.ErrorContextWithAlert(ctx, "Failed to persist daily recommendation",
			logger.StringField("date", date),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("%w: %v", dto.ErrGenerationFailed, err)
	}

	s.inmemoryCache.Set(common.KeyTodayRecommendation, rec, s.cfg.Cache.DefaultExpiration)

	s.log.InfoContext(ctx, "Daily recommendation generated",
		logger.StringField("recommendation_id", rec.RecommendationID),
		logger.IntField("version", rec.Version),
		logger.IntField("stocks", len(rec.Stocks)),
	)
	s.notifier.Send(ctx, formatRecommendationSummary(rec))

	return rec, nil
}

func (s *recommendationService) GetRecommendationByDate(ctx context.Context, date string) (*model.DailyRecommendation, error) {
	if _, err := time.Parse(utils.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	active, err := s.recRepo.FindActiveByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}

	// no active version; fall back to the newest one for the date
	recs, err := s.recRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, dto.ErrRecommendationNotFound
	}
	return &recs[0], nil
}

func (s *recommendationService) GetTodayRecommendation(ctx context.Context) (*model.DailyRecommendation, error) {
	today := utils.TodayMarketDate()

	if cached, found := cache.GetFromCache[*model.DailyRecommendation](common.KeyTodayRecommendation); found {
		if cached != nil && cached.RecommendationDate == today {
			return cached, nil
		}
	}

	active, err := s.recRepo.FindActiveByDate(ctx, today)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, dto.ErrRecommendationNotFound
	}

	s.inmemoryCache.Set(common.KeyTodayRecommendation, active, s.cfg.Cache.DefaultExpiration)
	return active, nil
}

func (s *recommendationService) GetRecommendationStatus(ctx context.Context) (*dto.RecommendationStatusResponse, error) {
	today := utils.TodayMarketDate()

	active, err := s.recRepo.FindActiveByDate(ctx, today)
	if err != nil {
		return nil, err
	}

	total, err := s.recRepo.CountSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	return &dto.RecommendationStatusResponse{
		HasToday:    active != nil,
		TodayDate:   today,
		RecordCount: total,
	}, nil
}

// CheckDailyStatus is the hourly watchdog during trading hours. It only
// warns; it never regenerates, so a manually curated draft is never
// clobbered.
func (s *recommendationService) CheckDailyStatus(ctx context.Context) error {
	needsUpdate, err := s.NeedsUpdate(ctx)
	if err != nil {
		return err
	}
	if needsUpdate {
		s.log.WarnContext(ctx, "No active daily recommendation for today",
			logger.StringField("date", utils.TodayMarketDate()),
		)
	}
	return nil
}

func buildRecommendation(date string, aiResp *dto.AIStockPickResponse, raw json.RawMessage) *model.DailyRecommendation {
	now := utils.TimeNowMarket()

	rec := &model.DailyRecommendation{
		RecommendationDate: date,
		CreateTime:         now,
		MarketOverview:     aiResp.MarketOverview,
		PolicyHotspots:     aiResp.PolicyHotspots,
		IndustryHotspots:   aiResp.IndustryHotspots,
		Summary:            aiResp.Summary,
		AnalystView:        aiResp.AnalystView,
		RiskWarning:        aiResp.RiskWarning,
		Status:             model.RecommendationActive,
		RawResponse:        []byte(raw),
	}

	for i, pick := range aiResp.Stocks {
		detail := model.StockRecommendationDetail{
			StockCode:            pick.StockCode,
			StockName:            pick.StockName,
			Sector:               pick.Sector,
			RecommendationReason: pick.RecommendationReason,
			Rating:               parseRating(pick.Rating),
			Score:                utils.Clamp(pick.Score, 0, 10),
			TargetPrice:          pick.TargetPrice,
			CurrentPrice:         pick.CurrentPrice,
			ExpectedReturnPct:    pick.ExpectedReturnPct,
			RiskLevel:            parseRiskLevel(pick.RiskLevel),
			InvestmentPeriod:     parseInvestmentPeriod(pick.InvestmentPeriod),
			TechnicalAnalysis:    pick.TechnicalAnalysis,
			FundamentalAnalysis:  pick.FundamentalAnalysis,
			NewsAnalysis:         pick.NewsAnalysis,
			SortOrder:            i,
			IsHot:                pick.IsHot,
		}
		if pick.ExpectedReturnPct == 0 && pick.CurrentPrice > 0 && pick.TargetPrice > 0 {
			detail.ExpectedReturnPct = (pick.TargetPrice - pick.CurrentPrice) / pick.CurrentPrice * 100
		}
		if len(pick.KeyMetrics) > 0 {
			if metrics, err := json.Marshal(pick.KeyMetrics); err == nil {
				detail.KeyMetrics = metrics
			}
		}
		rec.Stocks = append(rec.Stocks, detail)
	}

	return rec
}

func parseRating(raw string) model.Rating {
	switch model.Rating(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.RatingStronglyRecommend:
		return model.RatingStronglyRecommend
	case model.RatingRecommend:
		return model.RatingRecommend
	default:
		return model.RatingCautiousRecommend
	}
}

func parseRiskLevel(raw string) model.RiskLevel {
	switch model.RiskLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.RiskLow:
		return model.RiskLow
	case model.RiskHigh:
		return model.RiskHigh
	default:
		return model.RiskMedium
	}
}

func parseInvestmentPeriod(raw string) model.InvestmentPeriod {
	switch model.InvestmentPeriod(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.PeriodMedium:
		return model.PeriodMedium
	case model.PeriodLong:
		return model.PeriodLong
	default:
		return model.PeriodShort
	}
}

func formatRecommendationSummary(rec *model.DailyRecommendation) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Daily picks %s (v%d)*\n", rec.RecommendationDate, rec.Version))
	for _, stock := range rec.Stocks {
		sb.WriteString(fmt.Sprintf("- %s %s (%.1f, %s)\n", stock.StockCode, stock.StockName, stock.Score, stock.Rating))
	}
	return sb.String()
}
