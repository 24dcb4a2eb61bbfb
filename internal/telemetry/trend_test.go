package telemetry

import (
	"testing"
	"time"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

func series(t *testing.T, values ...float64) []models.HistorySample {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.HistorySample, len(values))
	for i, v := range values {
		out[i] = models.HistorySample{
			ParameterID: 10,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Value:       v,
		}
	}
	return out
}

func TestTrend_ConstantSeriesIsStable(t *testing.T) {
	s := series(t, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	if got := Trend(s); got != models.TrendStable {
		t.Errorf("Trend(constant) = %q, want stable", got)
	}
}

func TestTrend_StrictlyIncreasingIsRising(t *testing.T) {
	s := series(t, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	if got := Trend(s); got != models.TrendRising {
		t.Errorf("Trend(increasing) = %q, want rising", got)
	}
}

func TestTrend_StrictlyDecreasingIsFalling(t *testing.T) {
	s := series(t, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	if got := Trend(s); got != models.TrendFalling {
		t.Errorf("Trend(decreasing) = %q, want falling", got)
	}
}

func TestTrend_FewerThanTenSamplesIsNoData(t *testing.T) {
	for n := 0; n < 10; n++ {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(i)
		}
		if got := Trend(series(t, vals...)); got != models.TrendNoData {
			t.Errorf("Trend(%d samples) = %q, want no_data", n, got)
		}
	}
}

func TestTrend_SmallDriftWithinTwoPercentIsStable(t *testing.T) {
	// Older average 1000, recent average 1010: 1% drift.
	s := series(t, 1000, 1000, 1000, 1000, 1000, 1010, 1010, 1010, 1010, 1010)
	if got := Trend(s); got != models.TrendStable {
		t.Errorf("Trend(1%% drift) = %q, want stable", got)
	}
}

func TestAnalyzeTrend_ZeroOlderAverage(t *testing.T) {
	// olderAvg == 0 collapses the stability band to zero; any nonzero
	// diff resolves to rising/falling. Deployed behavior, preserved.
	s := series(t, 0, 0, 0, 0, 0, 0.001, 0.001, 0.001, 0.001, 0.001)
	d := AnalyzeTrend(s)
	if d.Direction != models.TrendRising {
		t.Errorf("Direction = %q, want rising", d.Direction)
	}
	if d.OlderAvg != 0 {
		t.Errorf("OlderAvg = %v, want 0", d.OlderAvg)
	}
}

func TestAnalyzeTrend_Averages(t *testing.T) {
	s := series(t, 1, 1, 1, 1, 1, 3, 3, 3, 3, 3)
	d := AnalyzeTrend(s)
	if d.OlderAvg != 1 || d.RecentAvg != 3 || d.Diff != 2 {
		t.Errorf("averages = (%v, %v, %v), want (1, 3, 2)", d.OlderAvg, d.RecentAvg, d.Diff)
	}
	if d.Direction != models.TrendRising {
		t.Errorf("Direction = %q, want rising", d.Direction)
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	samples := []models.HistorySample{
		{ParameterID: 10, Timestamp: now.Add(-3 * time.Hour), Value: 1},
		{ParameterID: 10, Timestamp: now.Add(-90 * time.Minute), Value: 2},
		{ParameterID: 10, Timestamp: now.Add(-30 * time.Minute), Value: 3},
		{ParameterID: 10, Timestamp: now.Add(-5 * time.Minute), Value: 4},
	}

	got := Window(samples, 2, now)
	if len(got) != 3 {
		t.Fatalf("Window(2h) returned %d samples, want 3", len(got))
	}
	if got[0].Value != 2 || got[2].Value != 4 {
		t.Errorf("Window(2h) = %v, want values 2..4 in order", got)
	}

	// Fractional hours are supported (dryer 1/2H preset).
	if got := Window(samples, 0.5, now); len(got) != 2 {
		t.Errorf("Window(0.5h) returned %d samples, want 2", len(got))
	}

	if got := Window(samples, -1, now); got != nil {
		t.Errorf("Window(-1h) = %v, want nil", got)
	}
}

func TestWindow_DoesNotAliasInput(t *testing.T) {
	now := time.Now()
	samples := []models.HistorySample{{ParameterID: 1, Timestamp: now, Value: 7}}
	got := Window(samples, 1, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(got))
	}
	got[0].Value = 99
	if samples[0].Value != 7 {
		t.Error("Window must copy, not alias, the input slice")
	}
}
