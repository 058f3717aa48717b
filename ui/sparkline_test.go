package ui

import (
	"math"
	"strings"
	"testing"
)

func TestDownsample(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := Downsample(nil, 10); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("zero width", func(t *testing.T) {
		if got := Downsample([]float64{1, 2, 3}, 0); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("short series returned unchanged", func(t *testing.T) {
		in := []float64{1, 2, 3}
		got := Downsample(in, 10)
		if len(got) != 3 {
			t.Fatalf("expected 3 points, got %d", len(got))
		}
		for i := range in {
			if got[i] != in[i] {
				t.Fatalf("point %d: got %v want %v", i, got[i], in[i])
			}
		}
	})

	t.Run("output length matches target", func(t *testing.T) {
		in := make([]float64, 500)
		for i := range in {
			in[i] = float64(i)
		}
		got := Downsample(in, 80)
		if len(got) != 80 {
			t.Fatalf("expected 80 points, got %d", len(got))
		}
	})

	t.Run("samples bounded by input range", func(t *testing.T) {
		in := make([]float64, 365)
		for i := range in {
			in[i] = 100 + 50*math.Sin(float64(i)/7)
		}
		min, max := in[0], in[0]
		for _, v := range in {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		for i, v := range Downsample(in, 60) {
			if v < min || v > max {
				t.Fatalf("point %d = %v outside [%v, %v]", i, v, min, max)
			}
		}
	})

	t.Run("preserves spike", func(t *testing.T) {
		in := make([]float64, 200)
		for i := range in {
			in[i] = 10
		}
		in[137] = 500
		got := Downsample(in, 40)
		found := false
		for _, v := range got {
			if v == 500 {
				found = true
			}
		}
		if !found {
			t.Fatal("spike lost during downsampling")
		}
	})
}

func TestSparkline(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := Sparkline(nil, 20); got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})

	t.Run("flat series renders mid level", func(t *testing.T) {
		got := Sparkline([]float64{5, 5, 5, 5}, 10)
		if got != strings.Repeat("▅", 4) {
			t.Fatalf("unexpected flat sparkline %q", got)
		}
	})

	t.Run("extremes hit first and last levels", func(t *testing.T) {
		got := []rune(Sparkline([]float64{0, 100}, 10))
		if got[0] != '▁' {
			t.Fatalf("min should render lowest block, got %q", got[0])
		}
		if got[1] != '█' {
			t.Fatalf("max should render highest block, got %q", got[1])
		}
	})
}
