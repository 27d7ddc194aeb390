package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"photonlab/internal/fit"
)

type curveRecord struct {
	Name string    `json:"name"`
	Lag  []float64 `json:"lag"`
	G    []float64 `json:"g"`
	Var  []float64 `json:"var"`
}

// loadCurves reads a JSON array of curve records. A missing var array
// defaults to unit variance.
func loadCurves(path string) ([]fit.Curve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []curveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s contains no curves", path)
	}

	curves := make([]fit.Curve, len(records))
	for i, rec := range records {
		if rec.Var == nil {
			rec.Var = make([]float64, len(rec.Lag))
			for j := range rec.Var {
				rec.Var[j] = 1
			}
		}
		curves[i] = fit.Curve{Name: rec.Name, Lag: rec.Lag, G: rec.G, Var: rec.Var}
	}
	return curves, nil
}

// parseAssignments parses "-set" overrides of the form
// "a=1,b=0.5;0.7": comma separates parameters, ';' separates the entries of
// a per-curve value.
func parseAssignments(s string) (map[string]fit.Value, error) {
	out := map[string]fit.Value{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed assignment %q", part)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("malformed assignment %q", part)
		}

		fields := strings.Split(raw, ";")
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", name, err)
			}
			values[i] = v
		}

		if len(values) == 1 {
			out[name] = fit.Scalar(values[0])
		} else {
			out[name] = fit.PerCurve(values)
		}
	}
	return out, nil
}
