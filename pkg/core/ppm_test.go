package core

import (
	"math"
	"testing"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name     string
		mz       float64
		ppm      float64
		wantLow  float64
		wantHigh float64
	}{
		{"10 ppm at 500", 500.0, 10, 499.995, 500.005},
		{"zero ppm", 760.585, 0, 760.585, 760.585},
		{"negative ppm uses magnitude", 1000.0, -5, 999.995, 1000.005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := Window(tt.mz, tt.ppm)
			if math.Abs(low-tt.wantLow) > 1e-9 || math.Abs(high-tt.wantHigh) > 1e-9 {
				t.Errorf("Window() = (%v, %v), want (%v, %v)", low, high, tt.wantLow, tt.wantHigh)
			}
		})
	}
}

func TestWindowSymmetricAndMonotonic(t *testing.T) {
	for _, mz := range []float64{184.073871, 600.512, 885.549853, 1450.9} {
		prevWidth := -1.0
		for _, ppm := range []float64{0, 1, 5, 20, 100} {
			low, high := Window(mz, ppm)
			if math.Abs((mz-low)-(high-mz)) > 2e-6 {
				t.Errorf("Window(%v, %v) not symmetric: (%v, %v)", mz, ppm, low, high)
			}
			if width := high - low; width < prevWidth {
				t.Errorf("Window(%v, %v) narrower than at smaller ppm", mz, ppm)
			} else {
				prevWidth = width
			}
		}
	}
}

func TestInWindow(t *testing.T) {
	if !InWindow(500.004, 500.0, 10) {
		t.Error("500.004 should be within 10 ppm of 500")
	}
	if InWindow(500.006, 500.0, 10) {
		t.Error("500.006 should be outside 10 ppm of 500")
	}
}
