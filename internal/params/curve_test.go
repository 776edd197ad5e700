package params

import (
	"math"
	"testing"
)

func TestCurveStepInterpolation(t *testing.T) {
	c := Step(Anchor{1990, 0.1}, Anchor{2000, 0.3}, Anchor{2010, 0.6})

	cases := []struct {
		year float64
		want float64
	}{
		{1990, 0.1},
		{1995, 0.1},
		{1999.9, 0.1},
		{2000, 0.3},
		{2005, 0.3},
		{2010, 0.6},
	}
	for _, tc := range cases {
		if got := c.At(tc.year); got != tc.want {
			t.Fatalf("At(%.1f) = %v, want %v", tc.year, got, tc.want)
		}
	}
}

func TestCurveLinearInterpolation(t *testing.T) {
	c := Linear(Anchor{2000, 0.2}, Anchor{2010, 0.4})

	if got := c.At(2005); math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("midpoint = %v, want 0.3", got)
	}
	if got := c.At(2002); math.Abs(got-0.24) > 1e-12 {
		t.Fatalf("At(2002) = %v, want 0.24", got)
	}
}

func TestCurveFlatExtrapolation(t *testing.T) {
	c := Linear(Anchor{2000, 0.2}, Anchor{2010, 0.4})

	if got := c.At(1980); got != 0.2 {
		t.Fatalf("before first anchor = %v, want 0.2", got)
	}
	if got := c.At(2090); got != 0.4 {
		t.Fatalf("after last anchor = %v, want 0.4", got)
	}
}

func TestCurveValidateRejectsOutOfRange(t *testing.T) {
	c := Linear(Anchor{2000, 0.2}, Anchor{2010, 1.4})
	if err := c.validate("test_curve", 0, 1); err == nil {
		t.Fatal("expected validation error for anchor above 1")
	}
}

func TestCurveValidateRejectsUnsortedAnchors(t *testing.T) {
	c := Linear(Anchor{2010, 0.2}, Anchor{2000, 0.4})
	if err := c.validate("test_curve", 0, 1); err == nil {
		t.Fatal("expected validation error for unsorted anchors")
	}
}
