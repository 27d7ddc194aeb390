package fit

// Curve is one dataset among possibly several fit jointly: a domain (lag
// times), observed values, and per-point variances of equal length.
type Curve struct {
	Name string
	Lag  []float64
	G    []float64
	Var  []float64
}

// Points reports the number of samples in the curve.
func (c Curve) Points() int {
	return len(c.Lag)
}

func (c Curve) wellFormed() bool {
	return len(c.Lag) > 0 && len(c.G) == len(c.Lag) && len(c.Var) == len(c.Lag)
}

// Model declares the parameters of a fit function and evaluates it.
//
// Eval must be a pure function of its arguments: given one curve's resolved
// parameter values and a domain, it returns the predicted values, one per
// domain point. Implementations must not retain or mutate their inputs.
type Model interface {
	Name() string
	Params() []Parameter
	Eval(params map[string]float64, x []float64) []float64
}
