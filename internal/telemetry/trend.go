package telemetry

import (
	"math"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

const (
	trendWindow = 5 // samples per comparison window
	// trendThreshold is the relative band around the older average
	// inside which movement counts as stable.
	trendThreshold = 0.02
)

// TrendDetail carries the trend classification together with the
// averages it was derived from.
type TrendDetail struct {
	Direction models.TrendDirection `json:"direction"`
	RecentAvg float64               `json:"recent_avg"`
	OlderAvg  float64               `json:"older_avg"`
	Diff      float64               `json:"diff"`
	Samples   int                   `json:"samples"`
}

// AnalyzeTrend compares the mean of the last five samples against the
// mean of the five samples before them. Movement smaller than 2% of the
// older average is stable. With fewer than ten samples there is no
// usable comparison and the direction is no_data.
//
// When the older average is exactly zero the stability band collapses
// to zero and any nonzero difference resolves to rising or falling.
// That matches the deployed behavior and must not be "fixed".
func AnalyzeTrend(samples []models.HistorySample) TrendDetail {
	d := TrendDetail{Direction: models.TrendNoData, Samples: len(samples)}
	if len(samples) < 2*trendWindow {
		return d
	}

	recent := samples[len(samples)-trendWindow:]
	older := samples[len(samples)-2*trendWindow : len(samples)-trendWindow]

	d.RecentAvg = mean(recent)
	d.OlderAvg = mean(older)
	d.Diff = d.RecentAvg - d.OlderAvg

	threshold := math.Abs(d.OlderAvg) * trendThreshold
	switch {
	case math.Abs(d.Diff) < threshold:
		d.Direction = models.TrendStable
	case d.Diff > 0:
		d.Direction = models.TrendRising
	default:
		d.Direction = models.TrendFalling
	}
	return d
}

// Trend returns just the direction of AnalyzeTrend.
func Trend(samples []models.HistorySample) models.TrendDirection {
	return AnalyzeTrend(samples).Direction
}

func mean(samples []models.HistorySample) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	return sum / float64(len(samples))
}
