package dto

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type GeminiAPIRequest struct {
	Contents []Content `json:"contents"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// AIStockPickResponse is the JSON document the market-wide picking prompt asks
// the model to return. Unparseable responses fail generation outright.
type AIStockPickResponse struct {
	MarketOverview   string        `json:"market_overview"`
	PolicyHotspots   string        `json:"policy_hotspots"`
	IndustryHotspots string        `json:"industry_hotspots"`
	Summary          string        `json:"summary"`
	AnalystView      string        `json:"analyst_view"`
	RiskWarning      string        `json:"risk_warning"`
	Stocks           []AIStockPick `json:"stocks"`
}

type AIStockPick struct {
	StockCode            string             `json:"stock_code"`
	StockName            string             `json:"stock_name"`
	Sector               string             `json:"sector"`
	RecommendationReason string             `json:"recommendation_reason"`
	Rating               string             `json:"rating"`
	Score                float64            `json:"score"`
	TargetPrice          float64            `json:"target_price"`
	CurrentPrice         float64            `json:"current_price"`
	ExpectedReturnPct    float64            `json:"expected_return_pct"`
	RiskLevel            string             `json:"risk_level"`
	InvestmentPeriod     string             `json:"investment_period"`
	TechnicalAnalysis    string             `json:"technical_analysis"`
	FundamentalAnalysis  string             `json:"fundamental_analysis"`
	NewsAnalysis         string             `json:"news_analysis"`
	KeyMetrics           map[string]float64 `json:"key_metrics,omitempty"`
	IsHot                bool               `json:"is_hot"`
}
