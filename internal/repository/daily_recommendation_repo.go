package repository

import (
	"context"
	"errors"
	"time"

	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/pkg/utils"

	"gorm.io/gorm"
)

type DailyRecommendationRepository interface {
	Create(ctx context.Context, rec *model.DailyRecommendation, opts ...utils.DBOption) error
	FindActiveByDate(ctx context.Context, date string, opts ...utils.DBOption) (*model.DailyRecommendation, error)
	FindByDate(ctx context.Context, date string) ([]model.DailyRecommendation, error)
	MaxVersionByDate(ctx context.Context, date string, opts ...utils.DBOption) (int, error)
	ExpireActiveByDate(ctx context.Context, date string, opts ...utils.DBOption) (int64, error)
	CountByDate(ctx context.Context, date string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error)
}

type dailyRecommendationRepository struct {
	db *gorm.DB
}

func NewDailyRecommendationRepository(db *gorm.DB) DailyRecommendationRepository {
	return &dailyRecommendationRepository{db: db}
}

func (r *dailyRecommendationRepository) Create(ctx context.Context, rec *model.DailyRecommendation, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(rec).Error
}

func (r *dailyRecommendationRepository) FindActiveByDate(ctx context.Context, date string, opts ...utils.DBOption) (*model.DailyRecommendation, error) {
	var rec model.DailyRecommendation
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("recommendation_date = ? AND status = ?", date, model.RecommendationActive).
		Preload("Stocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// FindByDate returns every version for a date, newest version first.
func (r *dailyRecommendationRepository) FindByDate(ctx context.Context, date string) ([]model.DailyRecommendation, error) {
	var recs []model.DailyRecommendation
	err := r.db.WithContext(ctx).
		Where("recommendation_date = ?", date).
		Preload("Stocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("version DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *dailyRecommendationRepository) MaxVersionByDate(ctx context.Context, date string, opts ...utils.DBOption) (int, error) {
	var maxVersion *int
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.DailyRecommendation{}).
		Where("recommendation_date = ?", date).
		Select("MAX(version)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	if maxVersion == nil {
		return 0, nil
	}
	return *maxVersion, nil
}

func (r *dailyRecommendationRepository) ExpireActiveByDate(ctx context.Context, date string, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.DailyRecommendation{}).
		Where("recommendation_date = ? AND status = ?", date, model.RecommendationActive).
		Update("status", model.RecommendationExpired)
	return result.RowsAffected, result.Error
}

func (r *dailyRecommendationRepository) CountByDate(ctx context.Context, date string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.DailyRecommendation{}).
		Where("recommendation_date = ?", date).
		Count(&total).Error
	return total, err
}

func (r *dailyRecommendationRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.DailyRecommendation{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

// DeleteOlderThan removes expired versions past the retention window. Active
// records are never deleted here.
func (r *dailyRecommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("status = ? AND created_at < ?", model.RecommendationExpired, cutoff).
		Delete(&model.DailyRecommendation{})
	return result.RowsAffected, result.Error
}
