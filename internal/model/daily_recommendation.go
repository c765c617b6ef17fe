package model

import (
	"time"

	"gorm.io/datatypes"
)

type RecommendationStatus string

const (
	RecommendationDraft   RecommendationStatus = "DRAFT"
	RecommendationActive  RecommendationStatus = "ACTIVE"
	RecommendationExpired RecommendationStatus = "EXPIRED"
)

type Rating string

const (
	RatingStronglyRecommend Rating = "STRONGLY_RECOMMEND"
	RatingRecommend         Rating = "RECOMMEND"
	RatingCautiousRecommend Rating = "CAUTIOUS_RECOMMEND"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type InvestmentPeriod string

const (
	PeriodShort  InvestmentPeriod = "SHORT"
	PeriodMedium InvestmentPeriod = "MEDIUM"
	PeriodLong   InvestmentPeriod = "LONG"
)

// DailyRecommendation is one calendar day's market-wide AI picks. Regeneration
// for the same date produces a new row with version+1; at most one row per
// date carries status ACTIVE.
type DailyRecommendation struct {
	ID                 uint                 `gorm:"primaryKey"`
	RecommendationID   string               `gorm:"type:varchar(100);uniqueIndex;not null"`
	RecommendationDate string               `gorm:"type:varchar(10);index;not null"`
	CreateTime         time.Time            `gorm:"not null"`
	MarketOverview     string               `gorm:"type:text"`
	PolicyHotspots     string               `gorm:"type:text"`
	IndustryHotspots   string               `gorm:"type:text"`
	Summary            string               `gorm:"type:text"`
	AnalystView        string               `gorm:"type:text"`
	RiskWarning        string               `gorm:"type:text"`
	Status             RecommendationStatus `gorm:"type:varchar(20);not null;index"`
	Version            int                  `gorm:"not null;default:1"`
	RawResponse        datatypes.JSON       `gorm:"type:jsonb"`
	CreatedAt          time.Time            `gorm:"autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"autoUpdateTime"`

	Stocks []StockRecommendationDetail `gorm:"foreignKey:DailyRecommendationID;constraint:OnDelete:CASCADE"`
}

func (DailyRecommendation) TableName() string {
	return "daily_recommendations"
}

// StockRecommendationDetail is one recommended security inside a
// DailyRecommendation, owned exclusively by it.
type StockRecommendationDetail struct {
	ID                    uint             `gorm:"primaryKey"`
	DailyRecommendationID uint             `gorm:"index;not null"`
	StockCode             string           `gorm:"type:varchar(20);index;not null"`
	StockName             string           `gorm:"type:varchar(100)"`
	Sector                string           `gorm:"type:varchar(100);index"`
	RecommendationReason  string           `gorm:"type:text"`
	Rating                Rating           `gorm:"type:varchar(30)"`
	Score                 float64          `gorm:"not null;default:0"`
	TargetPrice           float64          `gorm:"not null;default:0"`
	CurrentPrice          float64          `gorm:"not null;default:0"`
	ExpectedReturnPct     float64          `gorm:"not null;default:0"`
	RiskLevel             RiskLevel        `gorm:"type:varchar(10)"`
	InvestmentPeriod      InvestmentPeriod `gorm:"type:varchar(10)"`
	TechnicalAnalysis     string           `gorm:"type:text"`
	FundamentalAnalysis   string           `gorm:"type:text"`
	NewsAnalysis          string           `gorm:"type:text"`
	KeyMetrics            datatypes.JSON   `gorm:"type:jsonb"`
	SortOrder             int              `gorm:"not null;default:0"`
	IsHot                 bool             `gorm:"not null;default:false"`
	CreatedAt             time.Time        `gorm:"autoCreateTime"`
}

func (StockRecommendationDetail) TableName() string {
	return "stock_recommendation_details"
}
