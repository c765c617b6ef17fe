package repository

import (
	"context"
	"errors"
	"time"

	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/pkg/utils"

	"gorm.io/gorm"
)

type MonitoringJobRepository interface {
	Create(ctx context.Context, job *model.MonitoringJob, opts ...utils.DBOption) error
	Update(ctx context.Context, job *model.MonitoringJob, opts ...utils.DBOption) error
	Get(ctx context.Context, param *model.GetMonitoringJobParam, opts ...utils.DBOption) ([]model.MonitoringJob, error)
	FindByJobID(ctx context.Context, jobID string, opts ...utils.DBOption) (*model.MonitoringJob, error)
	CountByStatus(ctx context.Context) (map[model.MonitoringJobStatus]int64, error)
	DeleteStoppedOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error)
}

type monitoringJobRepository struct {
	db *gorm.DB
}

func NewMonitoringJobRepository(db *gorm.DB) MonitoringJobRepository {
	return &monitoringJobRepository{db: db}
}

func (r *monitoringJobRepository) Create(ctx context.Context, job *model.MonitoringJob, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(job).Error
}

func (r *monitoringJobRepository) Update(ctx context.Context, job *model.MonitoringJob, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Save(job).Error
}

func (r *monitoringJobRepository) Get(ctx context.Context, param *model.GetMonitoringJobParam, opts ...utils.DBOption) ([]model.MonitoringJob, error) {
	var jobs []model.MonitoringJob
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.MonitoringJob{})
	if param.JobID != "" {
		db = db.Where("job_id = ?", param.JobID)
	}
	if param.StockCode != "" {
		db = db.Where("stock_code = ?", param.StockCode)
	}
	if len(param.Statuses) > 0 {
		db = db.Where("status IN ?", param.Statuses)
	}
	if param.PausedBy != "" {
		db = db.Where("paused_by = ?", param.PausedBy)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}
	if err := db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *monitoringJobRepository) FindByJobID(ctx context.Context, jobID string, opts ...utils.DBOption) (*model.MonitoringJob, error) {
	var job model.MonitoringJob
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *monitoringJobRepository) CountByStatus(ctx context.Context) (map[model.MonitoringJobStatus]int64, error) {
	type row struct {
		Status model.MonitoringJobStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.MonitoringJob{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.MonitoringJobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (r *monitoringJobRepository) DeleteStoppedOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("status = ? AND updated_at < ?", model.JobStatusStopped, cutoff).
		Delete(&model.MonitoringJob{})
	return result.RowsAffected, result.Error
}
