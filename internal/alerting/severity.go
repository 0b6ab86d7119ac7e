package alerting

import (
	"math"

	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
)

const (
	defaultHighDeviationPct   = 20.0
	defaultMediumDeviationPct = 10.0
)

// ClassifySeverity tiers a violation by percentage deviation from the violated
// threshold. A zero threshold yields medium: the ratio is undefined there, and
// medium is the documented fallback rather than a meaningful classification.
func ClassifySeverity(measured, threshold float64) alertdomain.Severity {
	return classifyWithBands(measured, threshold, defaultHighDeviationPct, defaultMediumDeviationPct)
}

func classifyWithBands(measured, threshold, highPct, mediumPct float64) alertdomain.Severity {
	if threshold == 0 {
		return alertdomain.SeverityMedium
	}

	deviation := math.Abs(measured-threshold) / math.Abs(threshold) * 100

	switch {
	case deviation > highPct:
		return alertdomain.SeverityHigh
	case deviation > mediumPct:
		return alertdomain.SeverityMedium
	default:
		return alertdomain.SeverityLow
	}
}
