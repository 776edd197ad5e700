package randvar

import (
	"math"
	"testing"
)

func TestStreamDeterministicForEqualSeeds(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("streams diverged at draw %d", i)
		}
	}
}

func TestStreamDiffersAcrossSeeds(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 100 {
		t.Fatal("expected different sequences for different seeds")
	}
}

func TestBernoulliEdgeProbabilities(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		if s.Bernoulli(0) {
			t.Fatal("Bernoulli(0) returned true")
		}
		if !s.Bernoulli(1) {
			t.Fatal("Bernoulli(1) returned false")
		}
	}
	// Out-of-range inputs clamp rather than panic.
	if s.Bernoulli(-0.5) {
		t.Fatal("negative probability should clamp to never")
	}
	if !s.Bernoulli(1.5) {
		t.Fatal("probability above one should clamp to always")
	}
}

func TestGammaMeanMatchesShapeScale(t *testing.T) {
	s := New(11)
	const shape, scale = 4.0, 2.5
	sum := 0.0
	const n = 20000
	for i := 0; i < n; i++ {
		v := s.Gamma(shape, scale)
		if v < 0 {
			t.Fatalf("gamma draw negative: %v", v)
		}
		sum += v
	}
	mean := sum / n
	want := shape * scale
	if math.Abs(mean-want) > 0.3 {
		t.Fatalf("gamma mean %.3f too far from %.1f", mean, want)
	}
}

func TestPoissonMean(t *testing.T) {
	s := New(13)
	const lambda = 6.0
	sum := 0
	const n = 20000
	for i := 0; i < n; i++ {
		v := s.Poisson(lambda)
		if v < 0 {
			t.Fatalf("poisson draw negative: %d", v)
		}
		sum += v
	}
	mean := float64(sum) / n
	if math.Abs(mean-lambda) > 0.15 {
		t.Fatalf("poisson mean %.3f too far from %.1f", mean, lambda)
	}
}

func TestNormalClampedStaysInBounds(t *testing.T) {
	s := New(17)
	for i := 0; i < 5000; i++ {
		v := s.NormalClamped(1.0, 0.5, 0.2, 1.8)
		if v < 0.2 || v > 1.8 {
			t.Fatalf("clamped draw %v outside [0.2, 1.8]", v)
		}
	}
}

func TestMultinomialRespectsWeights(t *testing.T) {
	s := New(19)
	weights := []float64{0.1, 0.0, 0.9}
	counts := make([]int, 3)
	const n = 10000
	for i := 0; i < n; i++ {
		counts[s.Multinomial(weights)]++
	}
	if counts[1] != 0 {
		t.Fatalf("zero-weight category drawn %d times", counts[1])
	}
	if counts[2] <= counts[0] {
		t.Fatalf("heavy category drawn %d times, light %d", counts[2], counts[0])
	}
}

func TestUniformRange(t *testing.T) {
	s := New(23)
	for i := 0; i < 2000; i++ {
		v := s.UniformRange(3, 7)
		if v < 3 || v >= 7 {
			t.Fatalf("uniform draw %v outside [3, 7)", v)
		}
	}
}
