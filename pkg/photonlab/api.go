// Package photonlab is the public entry point of the toolkit: a Client that
// owns the model registry and the fit-run store and runs regressions.
package photonlab

import (
	"context"
	"fmt"
	"time"

	"photonlab/internal/fit"
	"photonlab/internal/model"
	"photonlab/internal/storage"
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	registry *fit.Registry
	store    storage.Store
}

// FitRequest describes one regression: the registered model name, the curves
// to fit jointly, and optional overrides of the model's default parameter
// scopes and values.
type FitRequest struct {
	Model  string
	Curves []fit.Curve
	Scopes map[string]fit.Scope
	Values map[string]fit.Value
	Save   bool
}

// FitSummary is the outcome of a converged regression.
type FitSummary struct {
	RunID            string
	Model            string
	Params           *fit.Params
	ChiSquare        float64
	ReducedChiSquare float64
	DegreesOfFreedom int
}

// New builds a client with the built-in models registered and the requested
// store backend initialized.
func New(ctx context.Context, opts Options) (*Client, error) {
	registry := fit.NewRegistry()
	if err := fit.RegisterBuiltins(registry); err != nil {
		return nil, err
	}

	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	return &Client{registry: registry, store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Registry exposes the model registry, e.g. to register project-specific
// models next to the built-ins.
func (c *Client) Registry() *fit.Registry {
	return c.registry
}

// Models returns the registered model names, sorted.
func (c *Client) Models() []string {
	return c.registry.Names()
}

// Fit resolves the requested model, applies scope and value overrides, runs
// the regression, and optionally persists the outcome as a fit run.
func (c *Client) Fit(ctx context.Context, req FitRequest) (FitSummary, error) {
	m, err := c.registry.Lookup(req.Model)
	if err != nil {
		return FitSummary{}, err
	}

	params, err := fit.NewParams(m, req.Curves)
	if err != nil {
		return FitSummary{}, err
	}
	for name, scope := range req.Scopes {
		if err := params.SetScope(name, scope); err != nil {
			return FitSummary{}, err
		}
	}
	for name, value := range req.Values {
		if err := params.SetValue(name, value); err != nil {
			return FitSummary{}, err
		}
	}

	fitted, result, err := fit.Fit(req.Curves, m, params)
	if err != nil {
		return FitSummary{}, err
	}

	summary := FitSummary{
		Model:            req.Model,
		Params:           fitted,
		ChiSquare:        result.ChiSquare,
		ReducedChiSquare: result.ReducedChiSquare,
		DegreesOfFreedom: result.DegreesOfFreedom,
	}

	if req.Save {
		run := fitRunRecord(req, fitted, result)
		if err := c.store.SaveFitRun(ctx, run); err != nil {
			return FitSummary{}, fmt.Errorf("save fit run: %w", err)
		}
		summary.RunID = run.ID
	}
	return summary, nil
}

// Runs lists persisted fit runs, newest first.
func (c *Client) Runs(ctx context.Context) ([]model.FitRun, error) {
	return c.store.ListFitRuns(ctx)
}

// Run fetches one persisted fit run by ID.
func (c *Client) Run(ctx context.Context, id string) (model.FitRun, bool, error) {
	return c.store.GetFitRun(ctx, id)
}

func fitRunRecord(req FitRequest, fitted *fit.Params, result *fit.Result) model.FitRun {
	names := make([]string, 0, len(req.Curves))
	for _, c := range req.Curves {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}

	states := make(map[string]model.ParamState, len(fitted.Names()))
	for _, name := range fitted.Names() {
		pv, _ := fitted.Get(name)
		state := model.ParamState{Scope: string(pv.Scope)}
		switch v := pv.Value.(type) {
		case fit.Scalar:
			state.Values = []float64{float64(v)}
		case fit.PerCurve:
			state.PerCurve = true
			state.Values = append([]float64(nil), v...)
		}
		states[name] = state
	}

	return model.FitRun{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:               storage.NewRunID(),
		Model:            req.Model,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339),
		CurveNames:       names,
		Params:           states,
		ChiSquare:        result.ChiSquare,
		ReducedChiSquare: result.ReducedChiSquare,
		DegreesOfFreedom: result.DegreesOfFreedom,
	}
}
