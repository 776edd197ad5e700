package mixing

import (
	"fmt"

	"hivsim/internal/model"
	"hivsim/internal/randvar"
)

// PartnerSampler selects a sexual partner for a contact event. Samplers are
// rebuilt from the live population once per step and must never return a
// dead or contact-ineligible individual.
type PartnerSampler interface {
	Name() string
	Rebuild(pop []*model.Individual)
	Sample(seeker *model.Individual, rng *randvar.Stream) (*model.Individual, bool)
}

// Config tunes the binned strategy's assortativity. The same-bin weights
// are calibration parameters, not derived constants.
type Config struct {
	// SameAgeBinWeight is the probability mass on the seeker's own 5-year
	// age bin; the remainder decays geometrically with bin distance.
	SameAgeBinWeight float64
	// SameRiskWeight is the probability mass on the seeker's own risk group.
	SameRiskWeight float64
}

// DefaultConfig returns the calibrated default assortativity weights.
func DefaultConfig() Config {
	return Config{SameAgeBinWeight: 0.65, SameRiskWeight: 0.70}
}

// New builds a sampler by strategy name: "naive" or "binned".
func New(name string, cfg Config) (PartnerSampler, error) {
	switch name {
	case "", "binned":
		return NewBinnedMixingSampler(cfg)
	case "naive":
		return NewNaiveScanSampler(), nil
	default:
		return nil, fmt.Errorf("unsupported mixing strategy: %s", name)
	}
}

// NaiveScanSampler samples uniformly among all contact-eligible
// opposite-sex individuals. O(population) to rebuild, used as the
// correctness baseline for the binned approximation.
type NaiveScanSampler struct {
	bySex [2][]*model.Individual
}

func NewNaiveScanSampler() *NaiveScanSampler {
	return &NaiveScanSampler{}
}

func (s *NaiveScanSampler) Name() string {
	return "naive"
}

func (s *NaiveScanSampler) Rebuild(pop []*model.Individual) {
	s.bySex[model.SexMale] = s.bySex[model.SexMale][:0]
	s.bySex[model.SexFemale] = s.bySex[model.SexFemale][:0]
	for _, ind := range pop {
		if ind.EligibleForContact() {
			s.bySex[ind.Sex] = append(s.bySex[ind.Sex], ind)
		}
	}
}

func (s *NaiveScanSampler) Sample(seeker *model.Individual, rng *randvar.Stream) (*model.Individual, bool) {
	pool := s.bySex[oppositeSex(seeker.Sex)]
	if len(pool) == 0 {
		return nil, false
	}
	return pool[rng.IntN(len(pool))], true
}

func oppositeSex(s model.Sex) model.Sex {
	if s == model.SexMale {
		return model.SexFemale
	}
	return model.SexMale
}
