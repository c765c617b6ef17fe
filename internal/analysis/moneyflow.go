package analysis

import (
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/pkg/utils"
)

const (
	flowBaseScore = 5.0

	// window weights, renormalized when a window is absent
	flowWeightToday   = 0.5
	flowWeightFiveDay = 0.3
	flowWeightTenDay  = 0.2

	// one point of adjustment per 10% weighted net inflow
	flowMagnitudeScale = 0.1

	// extra credit when every present window agrees on direction
	flowConsistencyBonus = 0.5

	// caps the magnitude term per capital class, before the consistency bonus
	flowClassCap = 2.0

	// mixed-sign windows only earn a half-strength adjustment
	flowMixedFactor = 0.5
)

// ScoreMoneyFlow folds a stock's capital-flow windows into a 0-10 score.
// Pure and deterministic; no samples at all yields exactly the neutral base.
func ScoreMoneyFlow(flow dto.MoneyFlowWindow) float64 {
	if !flow.HasData() {
		return flowBaseScore
	}

	score := flowBaseScore + classAdjustment(flow.Main) + classAdjustment(flow.SuperLarge)
	return utils.Clamp(score, 0, 10)
}

// classAdjustment computes one capital class's signed contribution. Absent
// windows do not count against the class; their weight is redistributed over
// the windows that are present.
func classAdjustment(w dto.FlowWindow) float64 {
	type sample struct {
		value  float64
		weight float64
	}

	var samples []sample
	if w.Today != nil {
		samples = append(samples, sample{*w.Today, flowWeightToday})
	}
	if w.FiveDay != nil {
		samples = append(samples, sample{*w.FiveDay, flowWeightFiveDay})
	}
	if w.TenDay != nil {
		samples = append(samples, sample{*w.TenDay, flowWeightTenDay})
	}
	if len(samples) == 0 {
		return 0
	}

	var weighted, totalWeight float64
	allPositive, allNegative := true, true
	for _, s := range samples {
		weighted += s.value * s.weight
		totalWeight += s.weight
		if s.value <= 0 {
			allPositive = false
		}
		if s.value >= 0 {
			allNegative = false
		}
	}
	weighted /= totalWeight

	magnitude := utils.Clamp(abs(weighted)*flowMagnitudeScale, 0, flowClassCap)

	switch {
	case allPositive:
		adj := magnitude
		if len(samples) > 1 {
			adj += flowConsistencyBonus
		}
		return adj
	case allNegative:
		adj := magnitude
		if len(samples) > 1 {
			adj += flowConsistencyBonus
		}
		return -adj
	default:
		// mixed signs: today's direction decides, at reduced strength
		sign := 0.0
		if w.Today != nil {
			switch {
			case *w.Today > 0:
				sign = 1
			case *w.Today < 0:
				sign = -1
			}
		}
		return sign * flowMixedFactor * magnitude
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
