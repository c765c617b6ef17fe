package analysis

import (
	"testing"

	"golang-stock-analysis/internal/dto"

	"github.com/stretchr/testify/assert"
)

func TestParse_NumberedFormat(t *testing.T) {
	input := `Here is the intraday read for 600000:

1. Trend Analysis: Short-term uptrend, higher lows since the open.
2. Technical Pattern: Ascending triangle forming on the 15-minute chart.
3. Moving Average: Price holding above the 5-day and 10-day lines.
4. RSI: 62, bullish but not yet overbought.
5. Price Prediction: Likely to test 10.80 before the close.
6. Trading Advice: Hold existing positions, add on a pullback to 10.50.`

	got := Parse(input)

	assert.Equal(t, "Short-term uptrend, higher lows since the open.", got.TrendAnalysis)
	assert.Equal(t, "Ascending triangle forming on the 15-minute chart.", got.TechnicalPattern)
	assert.Equal(t, "Price holding above the 5-day and 10-day lines.", got.MovingAverage)
	assert.Equal(t, "62, bullish but not yet overbought.", got.RSIAnalysis)
	assert.Equal(t, "Likely to test 10.80 before the close.", got.PricePrediction)
	assert.Equal(t, "Hold existing positions, add on a pullback to 10.50.", got.TradingAdvice)
	assert.Zero(t, got.EmptyFieldCount())
}

func TestParse_NumberedMultilineBody(t *testing.T) {
	input := `1. Trend Analysis: The uptrend is intact.
Volume confirms the move.
2. Trading Advice: Hold.`

	got := Parse(input)

	assert.Equal(t, "The uptrend is intact.\nVolume confirms the move.", got.TrendAnalysis)
	assert.Equal(t, "Hold.", got.TradingAdvice)
	assert.Empty(t, got.RSIAnalysis)
}

func TestParse_BulletedFormat(t *testing.T) {
	input := `- Trend Analysis: Sideways consolidation near the day's VWAP.
- Technical Pattern: No clear pattern yet.
- Moving Average: Trading between the 10-day and 20-day lines.
- RSI: 48, neutral.
- Price Prediction: Range-bound between 9.80 and 10.10.
- Trading Advice: Wait for a breakout before acting.`

	got := Parse(input)

	assert.Equal(t, "Sideways consolidation near the day's VWAP.", got.TrendAnalysis)
	assert.Equal(t, "No clear pattern yet.", got.TechnicalPattern)
	assert.Equal(t, "Trading between the 10-day and 20-day lines.", got.MovingAverage)
	assert.Equal(t, "48, neutral.", got.RSIAnalysis)
	assert.Equal(t, "Range-bound between 9.80 and 10.10.", got.PricePrediction)
	assert.Equal(t, "Wait for a breakout before acting.", got.TradingAdvice)
}

func TestParse_BoldFormat(t *testing.T) {
	input := `**Trend Analysis**: Weak downtrend since 10:30.
**RSI**: 35, approaching oversold.
**Trading Advice**: Reduce exposure on any bounce.`

	got := Parse(input)

	assert.Equal(t, "Weak downtrend since 10:30.", got.TrendAnalysis)
	assert.Equal(t, "35, approaching oversold.", got.RSIAnalysis)
	assert.Equal(t, "Reduce exposure on any bounce.", got.TradingAdvice)
	assert.Empty(t, got.TechnicalPattern)
	assert.Empty(t, got.MovingAverage)
	assert.Empty(t, got.PricePrediction)
}

func TestParse_LabelTolerance(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, got dto.ParsedAnalysis)
	}{
		{
			name:  "case insensitive",
			input: "1. TREND ANALYSIS: still rising.\n2. rsi: 70.",
			check: func(t *testing.T, got dto.ParsedAnalysis) {
				assert.Equal(t, "still rising.", got.TrendAnalysis)
				assert.Equal(t, "70.", got.RSIAnalysis)
			},
		},
		{
			name:  "label variant",
			input: "- Price Forecast: 11.20 by Friday.\n- Trading Suggestion: take partial profit.",
			check: func(t *testing.T, got dto.ParsedAnalysis) {
				assert.Equal(t, "11.20 by Friday.", got.PricePrediction)
				assert.Equal(t, "take partial profit.", got.TradingAdvice)
			},
		},
		{
			name:  "full-width colon",
			input: "1. Trend Analysis：holding support.",
			check: func(t *testing.T, got dto.ParsedAnalysis) {
				assert.Equal(t, "holding support.", got.TrendAnalysis)
			},
		},
		{
			name:  "bold label inside numbered marker",
			input: "1. **Trend Analysis**: breakout confirmed.",
			check: func(t *testing.T, got dto.ParsedAnalysis) {
				assert.Equal(t, "breakout confirmed.", got.TrendAnalysis)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Parse(tt.input))
		})
	}
}

func TestParse_EmphasisHandling(t *testing.T) {
	// markers wrapping the whole field are stripped, embedded ones stay
	got := Parse("1. Trend Analysis: **strong uptrend**\n2. RSI: reading is **72**, overbought.")

	assert.Equal(t, "strong uptrend", got.TrendAnalysis)
	assert.Equal(t, "reading is **72**, overbought.", got.RSIAnalysis)
}

func TestParse_UnrecognizedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "  \n\t "},
		{name: "prose without labels", input: "The market closed mixed today with banks leading."},
		{name: "numbered but unknown labels", input: "1. Weather: sunny.\n2. Mood: calm."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.True(t, got.IsEmpty())
		})
	}
}
