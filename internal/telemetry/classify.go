// Package telemetry holds the pure evaluation functions of the engine:
// threshold classification, range progress, trend analysis, and history
// windowing. Nothing here owns state or performs I/O.
package telemetry

import "github.com/dnenndn/monitoringAPP/pkg/models"

// warningBand is the fraction of the threshold span, measured inward
// from each threshold, treated as a warning zone.
const warningBand = 0.1

// Classify evaluates a value against its threshold envelope.
// Values outside [minThreshold, maxThreshold] are critical; values
// within 10% of the span from either threshold are warning; everything
// else is normal. A zero-width envelope (min == max) classifies exact
// equality as normal and anything else as critical -- no division is
// performed, so the degenerate case is safe.
func Classify(value, minThreshold, maxThreshold float64) models.ParameterStatus {
	if value < minThreshold || value > maxThreshold {
		return models.ParameterStatusCritical
	}
	span := maxThreshold - minThreshold
	if value < minThreshold+span*warningBand || value > maxThreshold-span*warningBand {
		return models.ParameterStatusWarning
	}
	return models.ParameterStatusNormal
}

// ClassifyParameter classifies a parameter's current value.
func ClassifyParameter(p models.Parameter) models.ParameterStatus {
	return Classify(p.CurrentValue, p.MinThreshold, p.MaxThreshold)
}

// RangeProgress reports how far a value sits inside the instrument's
// range envelope, as a percentage clamped to [0, 100]. A zero-width
// range cannot be computed; it reports 0 and degraded=true so callers
// can surface the misconfiguration instead of dividing by zero.
func RangeProgress(value, minRange, maxRange float64) (pct float64, degraded bool) {
	if maxRange == minRange {
		return 0, true
	}
	pct = (value - minRange) / (maxRange - minRange) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, false
}
