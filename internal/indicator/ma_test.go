package indicator

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	result := SMA(values, 3)

	if len(result) != len(values) {
		t.Fatalf("length = %d, want %d", len(result), len(values))
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(result[i]) {
			t.Errorf("result[%d] = %f, want NaN before window fills", i, result[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(result[i+2]-w) > 1e-9 {
			t.Errorf("result[%d] = %f, want %f", i+2, result[i+2], w)
		}
	}
}

func TestSMAShortInput(t *testing.T) {
	result := SMA([]float64{1, 2}, 5)
	if len(result) != 2 {
		t.Fatalf("length = %d, want 2", len(result))
	}
	for i, v := range result {
		if !math.IsNaN(v) {
			t.Errorf("result[%d] = %f, want NaN", i, v)
		}
	}
}

func TestEMA(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}
	result := EMA(values, 3)

	if !math.IsNaN(result[0]) || !math.IsNaN(result[1]) {
		t.Error("EMA values before the seed window should be NaN")
	}
	// Seeded with SMA of the first window.
	if math.Abs(result[2]-4) > 1e-9 {
		t.Errorf("seed = %f, want 4", result[2])
	}
	// ema = (v - prev)*2/(p+1) + prev
	if math.Abs(result[3]-6) > 1e-9 {
		t.Errorf("result[3] = %f, want 6", result[3])
	}
	if math.Abs(result[4]-8) > 1e-9 {
		t.Errorf("result[4] = %f, want 8", result[4])
	}
}
