package params

// Interpolation selects how values between anchors are derived.
type Interpolation uint8

const (
	// InterpStep holds each anchor's value until the next anchor year.
	InterpStep Interpolation = iota
	// InterpLinear interpolates linearly between adjacent anchors.
	InterpLinear
)

// Anchor is one (calendar year, value) point of a time-varying curve.
type Anchor struct {
	Year  float64 `json:"year"`
	Value float64 `json:"value"`
}

// Curve is a declarative anchor-point table. Anchors must be sorted by year.
// Queries before the first anchor return the first value and queries after
// the last anchor return the last value; there is no extrapolation.
type Curve struct {
	Anchors []Anchor      `json:"anchors"`
	Interp  Interpolation `json:"interp"`
}

// Step builds a step curve from anchor pairs.
func Step(anchors ...Anchor) Curve {
	return Curve{Anchors: anchors, Interp: InterpStep}
}

// Linear builds a linearly interpolated curve from anchor pairs.
func Linear(anchors ...Anchor) Curve {
	return Curve{Anchors: anchors, Interp: InterpLinear}
}

func (c Curve) Empty() bool {
	return len(c.Anchors) == 0
}

// At evaluates the curve at the given calendar year.
func (c Curve) At(year float64) float64 {
	if len(c.Anchors) == 0 {
		return 0
	}
	if year <= c.Anchors[0].Year {
		return c.Anchors[0].Value
	}
	last := c.Anchors[len(c.Anchors)-1]
	if year >= last.Year {
		return last.Value
	}
	for i := 1; i < len(c.Anchors); i++ {
		if year >= c.Anchors[i].Year {
			continue
		}
		prev, next := c.Anchors[i-1], c.Anchors[i]
		if c.Interp == InterpStep {
			return prev.Value
		}
		span := next.Year - prev.Year
		if span <= 0 {
			return next.Value
		}
		frac := (year - prev.Year) / span
		return prev.Value + (next.Value-prev.Value)*frac
	}
	return last.Value
}

func (c Curve) validate(name string, lo, hi float64) error {
	for i, a := range c.Anchors {
		if i > 0 && a.Year < c.Anchors[i-1].Year {
			return &ConfigError{Param: name, Detail: "anchors out of year order"}
		}
		if a.Value < lo || a.Value > hi {
			return &ConfigError{Param: name, Detail: "anchor value outside valid range"}
		}
	}
	return nil
}
