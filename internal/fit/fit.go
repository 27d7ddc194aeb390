package fit

import (
	"fmt"

	"github.com/maorshutman/lm"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Solver tuning. The numeric Jacobian owns its own differencing step; these
// pin the damping and termination tolerances.
const (
	lmTau          = 1e-6
	lmEps1         = 1e-8
	lmEps2         = 1e-8
	lmIterations   = 200
	lmObjectiveTol = 1e-16
)

// Result carries the diagnostics of a converged fit.
type Result struct {
	ChiSquare        float64
	ReducedChiSquare float64
	DegreesOfFreedom int
	Covariance       *mat.Dense
	ResidualMean     float64
	ResidualStdDev   float64
}

// Fit runs one regression of model against curves, starting from params.
//
// The input parameter set is never mutated: the driver works on a deep copy
// and returns it with optimized values on success. Residuals are the
// variance-weighted differences (G_obs - G_model)/var^2, concatenated across
// curves in curve order. A solver failure or a singular parameter covariance
// (a flat objective axis, so no minimum can be certified) fails with
// ErrNotConverged; every other error propagates as-is.
func Fit(curves []Curve, model Model, params *Params) (*Params, *Result, error) {
	if len(curves) == 0 {
		return nil, nil, ErrNoCurves
	}
	if len(curves) != params.NumCurves() {
		return nil, nil, fmt.Errorf("%w: fitting %d curves, bound to %d", ErrCurveCount, len(curves), params.NumCurves())
	}
	for _, c := range curves {
		if !c.wellFormed() {
			return nil, nil, fmt.Errorf("%w: curve %q", ErrCurveShape, c.Name)
		}
	}

	work := params.Clone()
	if err := work.Validate(); err != nil {
		return nil, nil, err
	}

	p0, err := work.Pack()
	if err != nil {
		return nil, nil, err
	}
	if len(p0) == 0 {
		return nil, nil, ErrNoFittedParams
	}

	size := 0
	for _, c := range curves {
		size += c.Points()
	}

	var evalErr error
	residuals := func(dst, trial []float64) {
		if err := work.Unpack(trial); err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return
		}
		off := 0
		for i, c := range curves {
			cp, err := work.CurveParams(i)
			if err != nil {
				if evalErr == nil {
					evalErr = err
				}
				return
			}
			g := model.Eval(cp, c.Lag)
			if len(g) != c.Points() {
				if evalErr == nil {
					evalErr = fmt.Errorf("%w: model %s returned %d values for %d points",
						ErrLengthMismatch, model.Name(), len(g), c.Points())
				}
				return
			}
			for j := range c.Lag {
				dst[off+j] = (c.G[j] - g[j]) / (c.Var[j] * c.Var[j])
			}
			off += c.Points()
		}
	}

	jacobian := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        len(p0),
		Size:       size,
		Func:       residuals,
		Jac:        jacobian.Jac,
		InitParams: p0,
		Tau:        lmTau,
		Eps1:       lmEps1,
		Eps2:       lmEps2,
	}

	solution, err := lm.LM(problem, &lm.Settings{Iterations: lmIterations, ObjectiveTol: lmObjectiveTol})
	if evalErr != nil {
		return nil, nil, evalErr
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}

	cov, err := covariance(jacobian, solution.X, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}

	if err := work.Unpack(solution.X); err != nil {
		return nil, nil, err
	}

	result, err := diagnose(curves, model, work, len(p0), cov)
	if err != nil {
		return nil, nil, err
	}
	return work, result, nil
}

// covariance inverts J'J at the solution. The solver library reports no
// covariance of its own, so a singular or ill-conditioned inverse here is
// the signal that the objective had a flat axis.
func covariance(jacobian lm.NumJac, x []float64, size int) (*mat.Dense, error) {
	jac := mat.NewDense(size, len(x), nil)
	jacobian.Jac(jac, x)

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var cov mat.Dense
	if err := cov.Inverse(&jtj); err != nil {
		return nil, err
	}
	return &cov, nil
}

func diagnose(curves []Curve, model Model, fitted *Params, dim int, cov *mat.Dense) (*Result, error) {
	var chi2 float64
	var raw []float64
	points := 0
	for i, c := range curves {
		cp, err := fitted.CurveParams(i)
		if err != nil {
			return nil, err
		}
		g := model.Eval(cp, c.Lag)
		for j := range c.Lag {
			r := c.G[j] - g[j]
			raw = append(raw, r)
			chi2 += r * r / c.Var[j]
		}
		points += c.Points()
	}

	mean, err := stats.Mean(raw)
	if err != nil {
		return nil, err
	}
	stdev, err := stats.StandardDeviation(raw)
	if err != nil {
		return nil, err
	}

	dof := points - dim
	result := &Result{
		ChiSquare:        chi2,
		DegreesOfFreedom: dof,
		Covariance:       cov,
		ResidualMean:     mean,
		ResidualStdDev:   stdev,
	}
	if dof > 0 {
		result.ReducedChiSquare = chi2 / float64(dof)
	}
	return result, nil
}
