package telemetry

import (
	"time"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// Trend period presets offered to consumers, in hours. Dryers change
// slowly, so their presets are shorter. The windower itself accepts any
// positive hour count; these are display defaults only.
var (
	KilnPeriodHours  = []float64{1, 6, 12, 24, 168}
	DryerPeriodHours = []float64{0.5, 1, 2, 4, 8}
)

// Window returns the samples whose timestamp is at or after
// now - periodHours, preserving input order. The input must already be
// ordered ascending by timestamp; no resampling or aggregation is done.
// A non-positive period yields nil.
func Window(samples []models.HistorySample, periodHours float64, now time.Time) []models.HistorySample {
	if periodHours <= 0 {
		return nil
	}
	cutoff := now.Add(-time.Duration(periodHours * float64(time.Hour)))
	for i, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			out := make([]models.HistorySample, len(samples)-i)
			copy(out, samples[i:])
			return out
		}
	}
	return nil
}
