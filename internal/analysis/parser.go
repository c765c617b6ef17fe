package analysis

import (
	"regexp"
	"strings"

	"golang-stock-analysis/internal/dto"
)

// fieldKey identifies one of the six semantic sections extracted from an AI
// response.
type fieldKey int

const (
	fieldTrend fieldKey = iota
	fieldPattern
	fieldMovingAverage
	fieldRSI
	fieldPricePrediction
	fieldTradingAdvice
)

// labelVariants maps normalized label spellings onto field keys. Labels are
// normalized by lowercasing and stripping every non-alphanumeric rune, so
// "Trend Analysis", "trend-analysis" and "TREND ANALYSIS:" all collide here.
var labelVariants = map[string]fieldKey{
	"trendanalysis":     fieldTrend,
	"trend":             fieldTrend,
	"technicalpattern":  fieldPattern,
	"technicalpatterns": fieldPattern,
	"patternanalysis":   fieldPattern,
	"movingaverage":     fieldMovingAverage,
	"movingaverages":    fieldMovingAverage,
	"maanalysis":        fieldMovingAverage,
	"rsi":               fieldRSI,
	"rsianalysis":       fieldRSI,
	"rsiindicator":      fieldRSI,
	"priceprediction":   fieldPricePrediction,
	"pricepredict":      fieldPricePrediction,
	"priceforecast":     fieldPricePrediction,
	"tradingadvice":     fieldTradingAdvice,
	"tradingsuggestion": fieldTradingAdvice,
	"operationadvice":   fieldTradingAdvice,
}

// formatHandler extracts labeled sections for one layout convention. A
// handler that finds nothing returns an empty map and the classifier moves
// on to the next one.
type formatHandler struct {
	name    string
	extract func(text string) map[fieldKey]string
}

// Handlers are tried in order of structural specificity. Adding a new layout
// means appending a handler here; the six-field output never changes.
var formatHandlers = []formatHandler{
	{name: "numbered", extract: extractNumbered},
	{name: "bulleted", extract: extractBulleted},
	{name: "bold", extract: extractBold},
	{name: "plain", extract: extractPlain},
}

var (
	numberedMarkerRe = regexp.MustCompile(`(?m)^[ \t]*\d+[\.\)、][ \t]*`)
	bulletMarkerRe   = regexp.MustCompile(`(?m)^[ \t]*[-*•][ \t]+`)
	boldLabelRe      = regexp.MustCompile(`\*\*([^*\n]+?)\*\*[ \t]*[:：]?`)
)

// Parse turns one AI free-text response into a ParsedAnalysis. It never
// fails: unmatched fields stay empty and unrecognized layouts yield an
// all-empty result.
func Parse(text string) dto.ParsedAnalysis {
	var parsed dto.ParsedAnalysis
	if strings.TrimSpace(text) == "" {
		return parsed
	}

	for _, handler := range formatHandlers {
		sections := handler.extract(text)
		if len(sections) == 0 {
			continue
		}
		assign(&parsed, sections)
		return parsed
	}
	return parsed
}

func assign(parsed *dto.ParsedAnalysis, sections map[fieldKey]string) {
	for key, content := range sections {
		switch key {
		case fieldTrend:
			parsed.TrendAnalysis = content
		case fieldPattern:
			parsed.TechnicalPattern = content
		case fieldMovingAverage:
			parsed.MovingAverage = content
		case fieldRSI:
			parsed.RSIAnalysis = content
		case fieldPricePrediction:
			parsed.PricePrediction = content
		case fieldTradingAdvice:
			parsed.TradingAdvice = content
		}
	}
}

// extractNumbered handles "1. Trend Analysis: ..." sections. A section's body
// runs until the next ordinal marker or end of text.
func extractNumbered(text string) map[fieldKey]string {
	return extractDelimited(text, numberedMarkerRe)
}

// extractBulleted handles "- Trend Analysis: ..." sections, body until the
// next bullet or end of text.
func extractBulleted(text string) map[fieldKey]string {
	return extractDelimited(text, bulletMarkerRe)
}

func extractDelimited(text string, marker *regexp.Regexp) map[fieldKey]string {
	locs := marker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	sections := make(map[fieldKey]string)
	for i, loc := range locs {
		start := loc[1]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		label, body, ok := splitLabel(text[start:end])
		if !ok {
			continue
		}
		key, known := labelVariants[normalizeLabel(label)]
		if !known {
			continue
		}
		sections[key] = trimField(body)
	}
	return sections
}

// extractBold handles "**Trend Analysis**: ..." sections, body until the next
// bold label or end of text.
func extractBold(text string) map[fieldKey]string {
	matches := boldLabelRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make(map[fieldKey]string)
	for i, m := range matches {
		label := text[m[2]:m[3]]
		key, known := labelVariants[normalizeLabel(label)]
		if !known {
			continue
		}
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[key] = trimField(text[start:end])
	}
	return sections
}

// extractPlain handles bare "Trend Analysis: ..." lines, one section per
// line.
func extractPlain(text string) map[fieldKey]string {
	sections := make(map[fieldKey]string)
	for _, line := range strings.Split(text, "\n") {
		label, body, ok := splitLabel(line)
		if !ok {
			continue
		}
		key, known := labelVariants[normalizeLabel(label)]
		if !known {
			continue
		}
		sections[key] = trimField(body)
	}
	return sections
}

// splitLabel cuts a section at its first colon. Both the ASCII and the
// full-width colon count.
func splitLabel(section string) (label, body string, ok bool) {
	idx := strings.IndexAny(section, ":：")
	if idx < 0 {
		return "", "", false
	}
	label = section[:idx]
	// a full-width colon is 3 bytes
	if strings.HasPrefix(section[idx:], "：") {
		body = section[idx+len("："):]
	} else {
		body = section[idx+1:]
	}
	if strings.TrimSpace(label) == "" {
		return "", "", false
	}
	return label, body, true
}

func normalizeLabel(label string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// trimField trims surrounding whitespace and strips emphasis markers only
// when they wrap the entire field. Markers embedded inside the content stay.
func trimField(content string) string {
	content = strings.TrimSpace(content)
	for _, marker := range []string{"**", "*"} {
		if len(content) > 2*len(marker) &&
			strings.HasPrefix(content, marker) &&
			strings.HasSuffix(content, marker) &&
			!strings.Contains(content[len(marker):len(content)-len(marker)], marker) {
			content = strings.TrimSpace(content[len(marker) : len(content)-len(marker)])
		}
	}
	return content
}
