package fit

import "math"

// LinearModel fits y = a*x + b. Used for detector calibration checks and as
// a cheap sanity model.
type LinearModel struct{}

func (LinearModel) Name() string {
	return "linear"
}

func (LinearModel) Params() []Parameter {
	return []Parameter{
		{Name: "a", Description: "slope", DefaultValue: Scalar(1), DefaultScope: ScopeFitted},
		{Name: "b", Description: "intercept", DefaultValue: Scalar(0), DefaultScope: ScopeFitted},
	}
}

func (LinearModel) Eval(p map[string]float64, x []float64) []float64 {
	a, b := p["a"], p["b"]
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = a*v + b
	}
	return out
}

// DiffusionModel is the correlation function of free 3-D diffusion through a
// Gaussian observation volume:
//
//	G(tau) = offset + 1/n * 1/(1+tau/tau_d) * 1/sqrt(1+tau/(aspect^2 tau_d))
//
// n is the mean occupancy, tau_d the characteristic diffusion time, aspect
// the axial-to-lateral ratio of the volume (an instrument property, fixed by
// default).
type DiffusionModel struct{}

func (DiffusionModel) Name() string {
	return "diffusion"
}

func (DiffusionModel) Params() []Parameter {
	return []Parameter{
		{Name: "n", Description: "mean occupancy", DefaultValue: Scalar(1), DefaultScope: ScopeFitted},
		{Name: "tau_d", Description: "diffusion time", DefaultValue: Scalar(1e-3), DefaultScope: ScopeFitted},
		{Name: "aspect", Description: "observation volume aspect ratio", DefaultValue: Scalar(10), DefaultScope: ScopeFixed},
		{Name: "offset", Description: "baseline offset", DefaultValue: Scalar(0), DefaultScope: ScopeFixed},
	}
}

func (DiffusionModel) Eval(p map[string]float64, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, tau := range x {
		out[i] = p["offset"] + diffusion(p, tau)
	}
	return out
}

// DiffusionTripletModel extends DiffusionModel with a triplet-state
// correction term:
//
//	G(tau) = offset + (1 + f/(1-f) exp(-tau/tau_f)) * G_diff(tau)
type DiffusionTripletModel struct{}

func (DiffusionTripletModel) Name() string {
	return "diffusion-triplet"
}

func (DiffusionTripletModel) Params() []Parameter {
	return append(DiffusionModel{}.Params(),
		Parameter{Name: "f_triplet", Description: "triplet fraction", DefaultValue: Scalar(0.1), DefaultScope: ScopeFitted},
		Parameter{Name: "tau_f", Description: "triplet lifetime", DefaultValue: Scalar(1e-6), DefaultScope: ScopeFitted},
	)
}

func (DiffusionTripletModel) Eval(p map[string]float64, x []float64) []float64 {
	f := p["f_triplet"]
	tauF := p["tau_f"]
	out := make([]float64, len(x))
	for i, tau := range x {
		triplet := 1 + f/(1-f)*math.Exp(-tau/tauF)
		out[i] = p["offset"] + triplet*diffusion(p, tau)
	}
	return out
}

func diffusion(p map[string]float64, tau float64) float64 {
	n := p["n"]
	tauD := p["tau_d"]
	aspect := p["aspect"]
	lateral := 1 / (1 + tau/tauD)
	axial := 1 / math.Sqrt(1+tau/(aspect*aspect*tauD))
	return lateral * axial / n
}
