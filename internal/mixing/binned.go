package mixing

import (
	"fmt"
	"math"

	"hivsim/internal/model"
	"hivsim/internal/randvar"
)

const (
	ageBinWidth   = 5.0
	minContactAge = 15.0
	ageBinCount   = 10 // covers 15..65
	riskCount     = 3
)

// BinnedMixingSampler buckets eligible partners by 5-year age bin and risk
// group so each contact samples a partner in expected O(1) instead of
// scanning the population. Bin choice is assortative: the seeker's own
// age/risk bin is favored and cross-bin mass decays geometrically with
// distance.
type BinnedMixingSampler struct {
	cfg   Config
	pools [2][ageBinCount][riskCount][]*model.Individual
	// binWeights is scratch space reused across samples.
	binWeights []float64
}

func NewBinnedMixingSampler(cfg Config) (*BinnedMixingSampler, error) {
	if cfg.SameAgeBinWeight == 0 && cfg.SameRiskWeight == 0 {
		cfg = DefaultConfig()
	}
	if cfg.SameAgeBinWeight <= 0 || cfg.SameAgeBinWeight >= 1 {
		return nil, fmt.Errorf("same age bin weight must be in (0,1): %v", cfg.SameAgeBinWeight)
	}
	if cfg.SameRiskWeight <= 0 || cfg.SameRiskWeight >= 1 {
		return nil, fmt.Errorf("same risk weight must be in (0,1): %v", cfg.SameRiskWeight)
	}
	return &BinnedMixingSampler{cfg: cfg, binWeights: make([]float64, ageBinCount)}, nil
}

func (s *BinnedMixingSampler) Name() string {
	return "binned"
}

func ageBinOf(age float64) int {
	bin := int((age - minContactAge) / ageBinWidth)
	if bin < 0 {
		bin = 0
	}
	if bin >= ageBinCount {
		bin = ageBinCount - 1
	}
	return bin
}

func (s *BinnedMixingSampler) Rebuild(pop []*model.Individual) {
	for sex := range s.pools {
		for bin := range s.pools[sex] {
			for risk := range s.pools[sex][bin] {
				s.pools[sex][bin][risk] = s.pools[sex][bin][risk][:0]
			}
		}
	}
	for _, ind := range pop {
		if !ind.EligibleForContact() {
			continue
		}
		bin := ageBinOf(ind.Age)
		s.pools[ind.Sex][bin][ind.Risk] = append(s.pools[ind.Sex][bin][ind.Risk], ind)
	}
}

func (s *BinnedMixingSampler) Sample(seeker *model.Individual, rng *randvar.Stream) (*model.Individual, bool) {
	sex := oppositeSex(seeker.Sex)
	seekerBin := ageBinOf(seeker.Age)

	for i := 0; i < ageBinCount; i++ {
		s.binWeights[i] = 0
	}
	anyCandidate := false
	for bin := 0; bin < ageBinCount; bin++ {
		if s.binSize(sex, bin) == 0 {
			continue
		}
		anyCandidate = true
		if bin == seekerBin {
			s.binWeights[bin] = s.cfg.SameAgeBinWeight
		} else {
			dist := math.Abs(float64(bin - seekerBin))
			s.binWeights[bin] = (1 - s.cfg.SameAgeBinWeight) * math.Pow(0.5, dist)
		}
	}
	if !anyCandidate {
		return nil, false
	}
	bin := rng.Multinomial(s.binWeights)
	if s.binSize(sex, bin) == 0 {
		// Multinomial can land on a zero-weight index only when all mass is
		// degenerate; fall back to the first populated bin.
		for b := 0; b < ageBinCount; b++ {
			if s.binSize(sex, b) > 0 {
				bin = b
				break
			}
		}
	}

	pool := s.pickRiskPool(sex, bin, seeker.Risk, rng)
	if len(pool) == 0 {
		return nil, false
	}
	return pool[rng.IntN(len(pool))], true
}

func (s *BinnedMixingSampler) binSize(sex model.Sex, bin int) int {
	total := 0
	for risk := 0; risk < riskCount; risk++ {
		total += len(s.pools[sex][bin][risk])
	}
	return total
}

// pickRiskPool applies risk-group assortativity within the chosen age bin.
func (s *BinnedMixingSampler) pickRiskPool(sex model.Sex, bin int, seekerRisk model.RiskGroup, rng *randvar.Stream) []*model.Individual {
	var weights [riskCount]float64
	for risk := 0; risk < riskCount; risk++ {
		if len(s.pools[sex][bin][risk]) == 0 {
			continue
		}
		if risk == int(seekerRisk) {
			weights[risk] = s.cfg.SameRiskWeight
		} else {
			weights[risk] = (1 - s.cfg.SameRiskWeight) / 2
		}
	}
	risk := rng.Multinomial(weights[:])
	return s.pools[sex][bin][risk]
}
