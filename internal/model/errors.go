package model

import "fmt"

// NumericalError reports a NaN/infinite hazard or an invalid distribution
// parameter encountered mid-step. The step must be aborted; continuing
// would produce invalid epidemiological output.
type NumericalError struct {
	Year         float64
	IndividualID int
	Param        string
	Value        float64
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical instability at year %.2f: %s=%v (individual %d)",
		e.Year, e.Param, e.Value, e.IndividualID)
}
