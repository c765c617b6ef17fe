package model

import (
	"time"

	"gorm.io/datatypes"
)

// MonitoringRecord is one tick's output for a monitoring job. Append-only.
type MonitoringRecord struct {
	ID        uint           `gorm:"primaryKey"`
	StockCode string         `gorm:"type:varchar(20);index;not null"`
	JobID     string         `gorm:"type:varchar(100);index;not null"`
	Content   string         `gorm:"type:text;not null"`
	Parsed    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
}

func (MonitoringRecord) TableName() string {
	return "stock_monitoring_records"
}
