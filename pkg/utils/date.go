package utils

import (
	"log"
	"time"
)

const DateLayout = "2006-01-02"

// GetMarketTimeLocation returns the exchange time zone. All trading-session
// arithmetic in the application happens in this location.
func GetMarketTimeLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

func TimeNowMarket() time.Time {
	return time.Now().In(GetMarketTimeLocation())
}

// TodayMarketDate returns the current calendar date in the market time zone,
// formatted as yyyy-MM-dd. Recommendation records are keyed by this value.
func TodayMarketDate() string {
	return TimeNowMarket().Format(DateLayout)
}

func IsTradingDay(t time.Time) bool {
	dow := t.In(GetMarketTimeLocation()).Weekday()
	return dow != time.Saturday && dow != time.Sunday
}

// IsLunchBreak reports whether t falls inside the 11:30-13:00 midday halt.
func IsLunchBreak(t time.Time) bool {
	local := t.In(GetMarketTimeLocation())
	mins := local.Hour()*60 + local.Minute()
	return mins >= 11*60+30 && mins < 13*60
}

// IsAfterMarketClose reports whether t is past the 15:00 close.
func IsAfterMarketClose(t time.Time) bool {
	local := t.In(GetMarketTimeLocation())
	return local.Hour() >= 15
}
