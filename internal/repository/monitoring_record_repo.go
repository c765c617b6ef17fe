package repository

import (
	"context"
	"time"

	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/pkg/utils"

	"gorm.io/gorm"
)

type MonitoringRecordRepository interface {
	Create(ctx context.Context, record *model.MonitoringRecord, opts ...utils.DBOption) error
	FindByStockCode(ctx context.Context, stockCode string, limit int) ([]model.MonitoringRecord, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error)
}

type monitoringRecordRepository struct {
	db *gorm.DB
}

func NewMonitoringRecordRepository(db *gorm.DB) MonitoringRecordRepository {
	return &monitoringRecordRepository{db: db}
}

func (r *monitoringRecordRepository) Create(ctx context.Context, record *model.MonitoringRecord, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(record).Error
}

func (r *monitoringRecordRepository) FindByStockCode(ctx context.Context, stockCode string, limit int) ([]model.MonitoringRecord, error) {
	var records []model.MonitoringRecord
	err := r.db.WithContext(ctx).
		Where("stock_code = ?", stockCode).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *monitoringRecordRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.MonitoringRecord{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

func (r *monitoringRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("created_at < ?", cutoff).
		Delete(&model.MonitoringRecord{})
	return result.RowsAffected, result.Error
}
