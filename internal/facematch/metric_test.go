package facematch

import (
	"errors"
	"math"
	"testing"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"cosine", Cosine, false},
		{"Euclidean", Euclidean, false},
		{" euclidean_l2 ", EuclideanL2, false},
		{"manhattan", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedMetric) {
					t.Errorf("ParseMetric(%q) error = %v, want ErrUnsupportedMetric", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMetric(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMetric(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetricDistance(t *testing.T) {
	const eps = 1e-9
	tests := []struct {
		name   string
		metric Metric
		a, b   []float64
		want   float64
	}{
		{"cosine identical", Cosine, []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"cosine scaled", Cosine, []float64{1, 2, 3}, []float64{2, 4, 6}, 0},
		{"cosine orthogonal", Cosine, []float64{1, 0}, []float64{0, 1}, 1},
		{"cosine opposite", Cosine, []float64{1, 0}, []float64{-1, 0}, 2},
		{"euclidean 3-4-5", Euclidean, []float64{0, 0}, []float64{3, 4}, 5},
		{"euclidean identical", Euclidean, []float64{1, 1}, []float64{1, 1}, 0},
		{"euclidean_l2 scaled", EuclideanL2, []float64{1, 0}, []float64{10, 0}, 0},
		{"euclidean_l2 orthogonal", EuclideanL2, []float64{2, 0}, []float64{0, 5}, math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.metric.Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > eps {
				t.Errorf("%s.Distance(%v, %v) = %v, want %v", tt.metric, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMetricDistance_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
	}{
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}},
		{"empty", []float64{}, []float64{}},
		{"nil", nil, nil},
	}

	for _, m := range Metrics {
		for _, tt := range tests {
			t.Run(m.String()+"/"+tt.name, func(t *testing.T) {
				if got := m.Distance(tt.a, tt.b); !math.IsInf(got, 1) {
					t.Errorf("Distance(%v, %v) = %v, want +Inf", tt.a, tt.b, got)
				}
			})
		}
	}

	for _, m := range []Metric{Cosine, EuclideanL2} {
		if got := m.Distance([]float64{0, 0}, []float64{1, 0}); !math.IsInf(got, 1) {
			t.Errorf("%s.Distance(zero, v) = %v, want +Inf", m, got)
		}
	}

	if got := Metric("bogus").Distance([]float64{1}, []float64{1}); !math.IsInf(got, 1) {
		t.Errorf("unknown metric distance = %v, want +Inf", got)
	}
}

func TestMetricDistance_Symmetric(t *testing.T) {
	pairs := [][2][]float64{
		{{1, 0, 0}, {1, 0, 0.05}},
		{{0.3, -1.2, 4.5, 2}, {-0.7, 0.1, 3.3, 9}},
		{{1e-3, 2e-3}, {5, -5}},
	}

	for _, m := range Metrics {
		for _, p := range pairs {
			ab := m.Distance(p[0], p[1])
			ba := m.Distance(p[1], p[0])
			if ab != ba {
				t.Errorf("%s not symmetric for %v, %v: %v != %v", m, p[0], p[1], ab, ba)
			}
		}
	}
}

func TestL2Normalize(t *testing.T) {
	got := L2Normalize([]float64{3, 4})
	if math.Abs(got[0]-0.6) > 1e-12 || math.Abs(got[1]-0.8) > 1e-12 {
		t.Errorf("L2Normalize([3 4]) = %v, want [0.6 0.8]", got)
	}
	if L2Normalize([]float64{0, 0}) != nil {
		t.Error("L2Normalize(zero) should return nil")
	}
}

func TestHNSWDistance(t *testing.T) {
	tests := []struct {
		metric        Metric
		wantNormalize bool
	}{
		{Cosine, false},
		{Euclidean, false},
		{EuclideanL2, true},
	}
	for _, tt := range tests {
		fn, normalize := tt.metric.HNSWDistance()
		if fn == nil {
			t.Errorf("%s: nil distance func", tt.metric)
		}
		if normalize != tt.wantNormalize {
			t.Errorf("%s: normalize = %v, want %v", tt.metric, normalize, tt.wantNormalize)
		}
	}
}
