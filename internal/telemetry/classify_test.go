package telemetry

import (
	"testing"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

func TestClassify_KilnTemperature(t *testing.T) {
	// Kiln 1 chamber temperature: thresholds 900-1000, warning bands
	// 900-910 and 990-1000.
	tests := []struct {
		name  string
		value float64
		want  models.ParameterStatus
	}{
		{"mid-band normal", 950, models.ParameterStatusNormal},
		{"just above lower threshold", 905, models.ParameterStatusWarning},
		{"just below upper threshold", 995, models.ParameterStatusWarning},
		{"lower warning boundary is normal", 910, models.ParameterStatusNormal},
		{"upper warning boundary is normal", 990, models.ParameterStatusNormal},
		{"below minimum", 899.9, models.ParameterStatusCritical},
		{"above maximum", 1050, models.ParameterStatusCritical},
		{"exactly at minimum", 900, models.ParameterStatusWarning},
		{"exactly at maximum", 1000, models.ParameterStatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.value, 900, 1000); got != tt.want {
				t.Errorf("Classify(%v, 900, 1000) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestClassify_Monotonic(t *testing.T) {
	// Decreasing a value below the lower threshold must always be
	// critical, no matter how far below.
	for _, v := range []float64{899, 800, 0, -1e6} {
		if got := Classify(v, 900, 1000); got != models.ParameterStatusCritical {
			t.Errorf("Classify(%v) = %q, want critical", v, got)
		}
	}
	// Values strictly inside both warning insets are always normal.
	for _, v := range []float64{911, 925, 950, 975, 989} {
		if got := Classify(v, 900, 1000); got != models.ParameterStatusNormal {
			t.Errorf("Classify(%v) = %q, want normal", v, got)
		}
	}
}

func TestClassify_ZeroSpan(t *testing.T) {
	if got := Classify(42, 42, 42); got != models.ParameterStatusNormal {
		t.Errorf("Classify(42, 42, 42) = %q, want normal", got)
	}
	if got := Classify(42.001, 42, 42); got != models.ParameterStatusCritical {
		t.Errorf("Classify(42.001, 42, 42) = %q, want critical", got)
	}
	if got := Classify(41.999, 42, 42); got != models.ParameterStatusCritical {
		t.Errorf("Classify(41.999, 42, 42) = %q, want critical", got)
	}
}

func TestClassifyParameter(t *testing.T) {
	p := models.Parameter{CurrentValue: 1050, MinThreshold: 900, MaxThreshold: 1000}
	if got := ClassifyParameter(p); got != models.ParameterStatusCritical {
		t.Errorf("ClassifyParameter = %q, want critical", got)
	}
}

func TestRangeProgress(t *testing.T) {
	tests := []struct {
		name         string
		value        float64
		min, max     float64
		wantPct      float64
		wantDegraded bool
	}{
		{"midpoint", 700, 0, 1400, 50, false},
		{"below range clamps to 0", -10, 0, 1400, 0, false},
		{"above range clamps to 100", 1500, 0, 1400, 100, false},
		{"zero-width range", 5, 5, 5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, degraded := RangeProgress(tt.value, tt.min, tt.max)
			if pct != tt.wantPct || degraded != tt.wantDegraded {
				t.Errorf("RangeProgress(%v, %v, %v) = (%v, %v), want (%v, %v)",
					tt.value, tt.min, tt.max, pct, degraded, tt.wantPct, tt.wantDegraded)
			}
		})
	}
}
