package repository

import (
	"golang-stock-analysis/config"
	"golang-stock-analysis/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	MonitoringJobRepo       MonitoringJobRepository
	MonitoringRecordRepo    MonitoringRecordRepository
	DailyRecommendationRepo DailyRecommendationRepository
	MoneyFlowRepo           MoneyFlowRepository
	GeminiAIRepo            AIRepository
	UnitOfWork              UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	geminiAIRepo, err := NewGeminiAIRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		MonitoringJobRepo:       NewMonitoringJobRepository(db),
		MonitoringRecordRepo:    NewMonitoringRecordRepository(db),
		DailyRecommendationRepo: NewDailyRecommendationRepository(db),
		MoneyFlowRepo:           NewMoneyFlowRepository(cfg, log),
		GeminiAIRepo:            geminiAIRepo,
		UnitOfWork:              NewUnitOfWork(db),
	}, nil
}
