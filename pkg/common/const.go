package common

const (
	KeyTodayRecommendation = "daily_recommendation:today"
)

const (
	KeyLogHookSendAlert = "send_alert"
)

// EastMoney market prefixes used to build a secid: 0 = Shenzhen, 1 = Shanghai.
const (
	MarketPrefixShenzhen = "0"
	MarketPrefixShanghai = "1"
)
