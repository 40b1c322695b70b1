package tonal

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSemitoneConversion(t *testing.T) {
	if got := HzToSemi(261.6, 130.8); !almostEqual(got, 12, 1e-9) {
		t.Errorf("HzToSemi octave = %v", got)
	}
	if got := SemiToHz(7, 100); !almostEqual(got, 149.8307, 1e-3) {
		t.Errorf("SemiToHz(7) = %v", got)
	}
	if got := Cents(440*math.Pow(2, 1.0/1200), 440); !almostEqual(got, 1, 1e-9) {
		t.Errorf("Cents = %v", got)
	}
	for _, semi := range []float64{-13.5, -1, 0, 3.25, 24} {
		if got := HzToSemi(SemiToHz(semi, 220), 220); !almostEqual(got, semi, 1e-9) {
			t.Errorf("round trip %v = %v", semi, got)
		}
	}
}

func TestIsCoreDegree(t *testing.T) {
	core := map[int]bool{0: true, 2: true, 4: true, 5: true, 7: true, 9: true, 11: true}
	for semi := -24; semi <= 24; semi++ {
		d := ((semi % 12) + 12) % 12
		if got := IsCoreDegree(semi); got != core[d] {
			t.Errorf("IsCoreDegree(%d) = %v", semi, got)
		}
	}
}

func TestTunedHz(t *testing.T) {
	tests := []struct {
		semi   int
		tuning Tuning
		want   float64
	}{
		{0, EqualTemperament, 200},
		{12, EqualTemperament, 400},
		{7, JustIntonation, 300},
		{4, JustIntonation, 250},
		{-5, JustIntonation, 150},  // 3/2 one octave down
		{-12, JustIntonation, 100}, // tonic one octave down
		{1, JustIntonation, SemiToHz(1, 200)},
		{19, JustIntonation, 600},
	}
	for _, tt := range tests {
		if got := TunedHz(200, tt.semi, tt.tuning); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("TunedHz(200, %d, %s) = %v, want %v", tt.semi, tt.tuning, got, tt.want)
		}
	}
}

func TestDegreeLabel(t *testing.T) {
	tests := map[int]string{
		0:   "1",
		1:   "#1",
		4:   "3",
		11:  "7",
		12:  "1'",
		26:  "2''",
		-1:  "7,",
		-5:  "5,",
		-14: "#6,,",
	}
	for semi, want := range tests {
		if got := DegreeLabel(semi); got != want {
			t.Errorf("DegreeLabel(%d) = %q, want %q", semi, got, want)
		}
	}
}

func TestPercentile(t *testing.T) {
	vals := []float64{5, 1, 4, 2, 3}
	if got := Median(vals); got != 3 {
		t.Errorf("Median = %v", got)
	}
	if got := Percentile(vals, 0.9); !almostEqual(got, 4.6, 1e-9) {
		t.Errorf("p90 = %v", got)
	}
	if got := Percentile(vals, 0); got != 1 {
		t.Errorf("p0 = %v", got)
	}
	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("empty = %v", got)
	}
	if vals[0] != 5 {
		t.Error("Percentile modified its input")
	}
	if got := Median([]float64{1, 2, 3, 10}); got != 2.5 {
		t.Errorf("even median = %v", got)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || !almostEqual(std, math.Sqrt(32.0/7), 1e-12) {
		t.Errorf("MeanStd = %v, %v", mean, std)
	}
	if m, s := MeanStd([]float64{3}); m != 3 || s != 0 {
		t.Errorf("single = %v, %v", m, s)
	}
	if got := MeanAbsDiff([]float64{0, 2, 1, 1}); got != 1 {
		t.Errorf("MeanAbsDiff = %v", got)
	}
}

func TestInterpolateHz(t *testing.T) {
	curve := []Point{{0, 100}, {1, 200}, {2, 200}, {3, 300}}
	tests := []struct {
		t, want float64
	}{
		{-1, 100},
		{0, 100},
		{0.5, 150},
		{1.5, 200},
		{2.25, 225},
		{3, 300},
		{9, 300},
	}
	for _, tt := range tests {
		if got := InterpolateHz(curve, tt.t); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("InterpolateHz(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	if got := InterpolateHz(nil, 1); got != 0 {
		t.Errorf("empty curve = %v", got)
	}
}

func TestClampScore(t *testing.T) {
	tests := map[float64]int{-3: 0, 0.4: 0, 49.5: 50, 99.6: 100, 140: 100, math.NaN(): 0}
	for in, want := range tests {
		if got := ClampScore(in); got != want {
			t.Errorf("ClampScore(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != Absolute {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMode("relative"); err != nil || m != Relative {
		t.Errorf("ParseMode(relative) = %v, %v", m, err)
	}
	if _, err := ParseMode("loose"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
