package dto

// ParsedAnalysis is the fixed six-field output of the response parser. Fields
// left empty mean "not provided by the model", never an error.
type ParsedAnalysis struct {
	TrendAnalysis    string `json:"trend_analysis"`
	TechnicalPattern string `json:"technical_pattern"`
	MovingAverage    string `json:"moving_average"`
	RSIAnalysis      string `json:"rsi_analysis"`
	PricePrediction  string `json:"price_prediction"`
	TradingAdvice    string `json:"trading_advice"`
}

// IsEmpty reports whether extraction produced nothing at all.
func (p ParsedAnalysis) IsEmpty() bool {
	return p.TrendAnalysis == "" &&
		p.TechnicalPattern == "" &&
		p.MovingAverage == "" &&
		p.RSIAnalysis == "" &&
		p.PricePrediction == "" &&
		p.TradingAdvice == ""
}

// EmptyFieldCount counts unextracted fields, used for degraded-parse logging.
func (p ParsedAnalysis) EmptyFieldCount() int {
	n := 0
	for _, v := range []string{
		p.TrendAnalysis, p.TechnicalPattern, p.MovingAverage,
		p.RSIAnalysis, p.PricePrediction, p.TradingAdvice,
	} {
		if v == "" {
			n++
		}
	}
	return n
}
