package ease

import (
	"math"
	"testing"
)

func TestCurves(t *testing.T) {
	tests := []struct {
		name     string
		curve    string
		input    float64
		expected float64
	}{
		{"linear midpoint", "linear", 0.5, 0.5},
		{"out cubic midpoint", "out_cubic", 0.5, 0.875},
		{"in cubic midpoint", "in_cubic", 0.5, 0.125},
		{"in out cubic quarter", "in_out_cubic", 0.25, 0.0625},
		{"in out cubic three quarters", "in_out_cubic", 0.75, 0.9375},
		{"out quad midpoint", "out_quad", 0.5, 0.75},
		{"in quad midpoint", "in_quad", 0.5, 0.25},
		{"out expo end", "out_expo", 1.0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ByName(tt.curve)
			if !ok {
				t.Fatalf("curve %s not found", tt.curve)
			}
			if got := f(tt.input); math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("%s(%v) = %v, want %v", tt.curve, tt.input, got, tt.expected)
			}
		})
	}
}

// TestCurvesEndpoints 测试每条曲线从 0 开始到 1 结束
func TestCurvesEndpoints(t *testing.T) {
	for _, name := range Names() {
		f, _ := ByName(name)
		if got := f(0); math.Abs(got) > 0.001 {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := f(1); math.Abs(got-1) > 0.001 {
			t.Errorf("%s(1) = %v, want 1", name, got)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name              string
		elapsed, duration float64
		expected          float64
	}{
		{"halfway", 150, 300, 0.5},
		{"overrun clamps", 400, 300, 1},
		{"negative clamps", -10, 300, 0},
		{"zero duration is done", 10, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.elapsed, tt.duration); got != tt.expected {
				t.Errorf("Progress(%v, %v) = %v, want %v", tt.elapsed, tt.duration, got, tt.expected)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(10, 20, 0.25); got != 12.5 {
		t.Errorf("Lerp = %v, want 12.5", got)
	}
}
