package randvar

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Stream is the single seeded random source an engine instance owns. All
// draws for a run come from this stream in a fixed order, so equal seeds
// give bit-identical trajectories.
type Stream struct {
	src *rand.PCG
	rng *rand.Rand
}

// New returns a stream seeded deterministically from seed.
func New(seed int64) *Stream {
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &Stream{src: src, rng: rand.New(src)}
}

func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

func (s *Stream) IntN(n int) int {
	return s.rng.IntN(n)
}

// Bernoulli draws a single success/failure trial. Probabilities outside
// [0,1] are clamped; callers validate upstream where out-of-range values
// indicate a fault.
func (s *Stream) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// Poisson draws a count with the given mean. A non-positive mean yields 0.
func (s *Stream) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: lambda, Src: s.src}
	return int(d.Rand())
}

// Gamma draws from a Gamma(shape, scale) distribution. gonum parameterizes
// by rate, hence Beta = 1/scale.
func (s *Stream) Gamma(shape, scale float64) float64 {
	d := distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: s.src}
	return d.Rand()
}

func (s *Stream) Normal(mu, sigma float64) float64 {
	d := distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}
	return d.Rand()
}

// LogNormal draws a value whose natural log is Normal(mu, sigma).
func (s *Stream) LogNormal(mu, sigma float64) float64 {
	d := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.src}
	return d.Rand()
}

// NormalClamped draws Normal(mu, sigma) truncated by rejection into
// [lo, hi]. Intended for bounded individual attributes such as adherence.
func (s *Stream) NormalClamped(mu, sigma, lo, hi float64) float64 {
	for i := 0; i < 16; i++ {
		v := s.Normal(mu, sigma)
		if v >= lo && v <= hi {
			return v
		}
	}
	return math.Min(hi, math.Max(lo, mu))
}

// Multinomial picks an index proportionally to weights. Non-positive total
// weight falls back to the last index, mirroring weighted-policy selection
// elsewhere in the codebase.
func (s *Stream) Multinomial(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return len(weights) - 1
	}
	pick := s.rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if pick <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// UniformRange draws uniformly from [lo, hi).
func (s *Stream) UniformRange(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
