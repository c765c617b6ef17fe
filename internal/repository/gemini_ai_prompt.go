package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/pkg/logger"
)

func (r *geminiAIRepository) promptPickDailyStocks(date string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"You are a professional A-share market analyst. Produce today's (%s) market-wide stock recommendations based on current market conditions, policy news and sector rotation.\n\n",
		date,
	))

	sb.WriteString(`### Tasks:
1. Summarize the overall market: index levels, breadth, sentiment.
2. Identify current policy hotspots and industry hotspots.
3. Recommend 5-10 stocks. For each stock provide:
   - stock_code (6-digit A-share code) and stock_name
   - sector and a concise recommendation_reason
   - rating: one of "STRONGLY_RECOMMEND", "RECOMMEND", "CAUTIOUS_RECOMMEND"
   - score between 0 and 10 (higher means stronger conviction)
   - target_price, current_price and expected_return_pct
   - risk_level: "LOW", "MEDIUM" or "HIGH"
   - investment_period: "SHORT", "MEDIUM" or "LONG"
   - technical_analysis, fundamental_analysis and news_analysis, each one short paragraph
   - is_hot: true when the stock sits in a current hotspot sector
4. Close with an analyst_view and a risk_warning.
`)

	sb.WriteString(`
### Output format (JSON only, no extra text):
{
  "market_overview": "...",
  "policy_hotspots": "...",
  "industry_hotspots": "...",
  "summary": "...",
  "analyst_view": "...",
  "risk_warning": "...",
  "stocks": [
    {
      "stock_code": "600000",
      "stock_name": "...",
      "sector": "...",
      "recommendation_reason": "...",
      "rating": "RECOMMEND",
      "score": 7.5,
      "target_price": 0,
      "current_price": 0,
      "expected_return_pct": 0,
      "risk_level": "MEDIUM",
      "investment_period": "SHORT",
      "technical_analysis": "...",
      "fundamental_analysis": "...",
      "news_analysis": "...",
      "key_metrics": {"pe": 0, "pb": 0},
      "is_hot": false
    }
  ]
}
`)

	return sb.String()
}

func (r *geminiAIRepository) promptMonitorStock(stockCode string, flow *dto.MoneyFlowWindow, flowScore float64) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"You are a professional intraday analyst watching A-share stock %s. Give a concise technical read for the current session.\n\n",
		stockCode,
	))

	sb.WriteString(`### Cover each of these, one labeled section per line:
1. Trend Analysis: the prevailing short-term trend and its strength.
2. Technical Pattern: any notable chart pattern forming.
3. Moving Average: price position relative to the 5/10/20-day lines.
4. RSI: current reading and what it implies.
5. Price Prediction: the likely range for the rest of the session.
6. Trading Advice: a concrete action for an existing holder.

Keep every section to one or two sentences. Use the numbered "N. Label:" format above.
`)

	if flow != nil && flow.HasData() {
		flowJSON, err := json.Marshal(flow)
		if err != nil {
			r.logger.Error("failed to marshal money flow for prompt", logger.ErrorField(err))
			return "", err
		}
		sb.WriteString(fmt.Sprintf("\n### Capital flow (net inflow %%, today / 5-day / 10-day), composite score %.1f/10:\n", flowScore))
		sb.WriteString(string(flowJSON))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
