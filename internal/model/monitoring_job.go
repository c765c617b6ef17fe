package model

import (
	"database/sql"
	"time"
)

type MonitoringJobStatus string

const (
	JobStatusRunning MonitoringJobStatus = "running"
	JobStatusPaused  MonitoringJobStatus = "paused"
	JobStatusStopped MonitoringJobStatus = "stopped"
)

// PausedBy records who paused a job. Only scheduler-paused jobs are eligible
// for the post-lunch bulk resume.
const (
	PausedByUser      = "user"
	PausedByScheduler = "scheduler"
)

// MonitoringJob is one recurring intraday watch on a stock. At most one
// running job may exist per stock code.
type MonitoringJob struct {
	ID              uint                `gorm:"primaryKey"`
	JobID           string              `gorm:"type:varchar(100);uniqueIndex;not null"`
	StockCode       string              `gorm:"type:varchar(20);index;not null"`
	IntervalMinutes int                 `gorm:"not null"`
	Status          MonitoringJobStatus `gorm:"type:varchar(20);not null;index"`
	PausedBy        sql.NullString      `gorm:"type:varchar(20)"`
	StartTime       time.Time           `gorm:"not null"`
	LastRunTime     sql.NullTime
	LastMessage     sql.NullString `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (MonitoringJob) TableName() string {
	return "stock_monitoring_jobs"
}

func (j *MonitoringJob) IsRunning() bool {
	return j.Status == JobStatusRunning
}

// IsTerminal reports whether the job can never tick again.
func (j *MonitoringJob) IsTerminal() bool {
	return j.Status == JobStatusStopped
}

type GetMonitoringJobParam struct {
	JobID     string
	StockCode string
	Statuses  []MonitoringJobStatus
	PausedBy  string
	Limit     *int
}
