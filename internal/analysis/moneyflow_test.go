package analysis

import (
	"testing"

	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func flowWindow(today, fiveDay, tenDay *float64) dto.FlowWindow {
	return dto.FlowWindow{Today: today, FiveDay: fiveDay, TenDay: tenDay}
}

func TestScoreMoneyFlow_EmptyInput(t *testing.T) {
	got := ScoreMoneyFlow(dto.MoneyFlowWindow{})
	assert.Equal(t, 5.0, got)
}

func TestScoreMoneyFlow_ConsistentPositive(t *testing.T) {
	flow := dto.MoneyFlowWindow{
		Main:       flowWindow(utils.ToPointer(8.0), utils.ToPointer(6.0), utils.ToPointer(4.0)),
		SuperLarge: flowWindow(utils.ToPointer(5.0), utils.ToPointer(3.0), utils.ToPointer(2.0)),
	}

	got := ScoreMoneyFlow(flow)

	assert.Greater(t, got, 5.0)
	assert.LessOrEqual(t, got, 10.0)
}

func TestScoreMoneyFlow_ConsistentNegative(t *testing.T) {
	flow := dto.MoneyFlowWindow{
		Main:       flowWindow(utils.ToPointer(-8.0), utils.ToPointer(-6.0), utils.ToPointer(-4.0)),
		SuperLarge: flowWindow(utils.ToPointer(-5.0), utils.ToPointer(-3.0), utils.ToPointer(-2.0)),
	}

	got := ScoreMoneyFlow(flow)

	assert.Less(t, got, 5.0)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestScoreMoneyFlow_Symmetry(t *testing.T) {
	up := dto.MoneyFlowWindow{
		Main:       flowWindow(utils.ToPointer(6.0), utils.ToPointer(4.0), utils.ToPointer(2.0)),
		SuperLarge: flowWindow(utils.ToPointer(3.0), utils.ToPointer(2.0), utils.ToPointer(1.0)),
	}
	down := dto.MoneyFlowWindow{
		Main:       flowWindow(utils.ToPointer(-6.0), utils.ToPointer(-4.0), utils.ToPointer(-2.0)),
		SuperLarge: flowWindow(utils.ToPointer(-3.0), utils.ToPointer(-2.0), utils.ToPointer(-1.0)),
	}

	assert.InDelta(t, 5.0-ScoreMoneyFlow(down), ScoreMoneyFlow(up)-5.0, 1e-9)
}

func TestScoreMoneyFlow_MixedSigns(t *testing.T) {
	tests := []struct {
		name string
		flow dto.MoneyFlowWindow
	}{
		{
			name: "today up against the longer windows",
			flow: dto.MoneyFlowWindow{
				Main:       flowWindow(utils.ToPointer(7.0), utils.ToPointer(-3.0), utils.ToPointer(-2.0)),
				SuperLarge: flowWindow(utils.ToPointer(1.0), utils.ToPointer(-1.0), utils.ToPointer(2.0)),
			},
		},
		{
			name: "today down against the longer windows",
			flow: dto.MoneyFlowWindow{
				Main:       flowWindow(utils.ToPointer(-4.0), utils.ToPointer(5.0), utils.ToPointer(3.0)),
				SuperLarge: flowWindow(utils.ToPointer(-2.0), utils.ToPointer(1.0), utils.ToPointer(-1.0)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreMoneyFlow(tt.flow)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 10.0)
		})
	}
}

func TestScoreMoneyFlow_MixedWeakerThanConsistent(t *testing.T) {
	consistent := dto.MoneyFlowWindow{
		Main: flowWindow(utils.ToPointer(6.0), utils.ToPointer(6.0), utils.ToPointer(6.0)),
	}
	mixed := dto.MoneyFlowWindow{
		Main: flowWindow(utils.ToPointer(6.0), utils.ToPointer(-6.0), utils.ToPointer(6.0)),
	}

	assert.Greater(t, ScoreMoneyFlow(consistent), ScoreMoneyFlow(mixed))
}

func TestScoreMoneyFlow_TodayOnlyDegradedMode(t *testing.T) {
	tests := []struct {
		name  string
		today float64
		above bool
	}{
		{name: "positive today", today: 9.0, above: true},
		{name: "negative today", today: -9.0, above: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := dto.MoneyFlowWindow{
				Main:       flowWindow(utils.ToPointer(tt.today), nil, nil),
				SuperLarge: flowWindow(utils.ToPointer(tt.today), nil, nil),
			}

			got := ScoreMoneyFlow(flow)

			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 10.0)
			if tt.above {
				assert.Greater(t, got, 5.0)
			} else {
				assert.Less(t, got, 5.0)
			}
		})
	}
}

func TestScoreMoneyFlow_ExtremeInflowClamped(t *testing.T) {
	flow := dto.MoneyFlowWindow{
		Main:       flowWindow(utils.ToPointer(500.0), utils.ToPointer(400.0), utils.ToPointer(300.0)),
		SuperLarge: flowWindow(utils.ToPointer(500.0), utils.ToPointer(400.0), utils.ToPointer(300.0)),
	}

	assert.Equal(t, 10.0, ScoreMoneyFlow(flow))
}

func TestScoreMoneyFlow_Deterministic(t *testing.T) {
	flow := dto.MoneyFlowWindow{
		Main:       flowWindow(utils.ToPointer(2.5), utils.ToPointer(-1.5), utils.ToPointer(0.5)),
		SuperLarge: flowWindow(utils.ToPointer(-0.5), nil, nil),
	}

	first := ScoreMoneyFlow(flow)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreMoneyFlow(flow))
	}
}
