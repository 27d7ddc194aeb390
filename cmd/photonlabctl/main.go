package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"photonlab/internal/alex"
	"photonlab/internal/binning"
	"photonlab/internal/fit"
	"photonlab/internal/storage"
	"photonlab/internal/timetag"
	papi "photonlab/pkg/photonlab"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "models":
		return runModels(ctx, args[1:])
	case "fit":
		return runFit(ctx, args[1:])
	case "bin":
		return runBin(ctx, args[1:])
	case "alex":
		return runAlex(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runModels(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry := fit.NewRegistry()
	if err := fit.RegisterBuiltins(registry); err != nil {
		return err
	}

	for _, name := range registry.Names() {
		m, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", name)
		for _, p := range m.Params() {
			fmt.Printf("  %-6s %-12s %s\n", p.DefaultScope, p.Name, p.Description)
		}
	}
	return nil
}

func runFit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	modelName := fs.String("model", "", "registered model name")
	curvesPath := fs.String("curves", "", "JSON curve file")
	fixNames := fs.String("fix", "", "comma-separated parameters to hold fixed")
	freeNames := fs.String("free", "", "comma-separated parameters to fit")
	setValues := fs.String("set", "", "parameter values, e.g. a=1,b=0.5;0.7 (';' separates per-curve values)")
	save := fs.Bool("save", false, "persist the fit run")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "photonlab.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelName == "" {
		return usageError("fit requires -model")
	}
	if *curvesPath == "" {
		return usageError("fit requires -curves")
	}

	curves, err := loadCurves(*curvesPath)
	if err != nil {
		return err
	}

	req := papi.FitRequest{
		Model:  *modelName,
		Curves: curves,
		Scopes: map[string]fit.Scope{},
		Save:   *save,
	}
	for _, name := range splitNames(*fixNames) {
		req.Scopes[name] = fit.ScopeFixed
	}
	for _, name := range splitNames(*freeNames) {
		req.Scopes[name] = fit.ScopeFitted
	}
	req.Values, err = parseAssignments(*setValues)
	if err != nil {
		return err
	}

	client, err := papi.New(ctx, papi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Fit(ctx, req)
	if err != nil {
		return err
	}

	for _, line := range summary.Params.Summary() {
		fmt.Println(line)
	}
	fmt.Printf("chi^2     = %g\n", summary.ChiSquare)
	fmt.Printf("chi^2/DOF = %g (dof=%d)\n", summary.ReducedChiSquare, summary.DegreesOfFreedom)
	if summary.RunID != "" {
		fmt.Printf("saved run %s\n", summary.RunID)
	}
	return nil
}

func runBin(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("bin", flag.ContinueOnError)
	file := fs.String("file", "", "timetag file")
	channel := fs.Uint("channel", 0x1, "strobe channel mask")
	skipWraps := fs.Int("skip-wraps", 1, "wraparound records to skip")
	width := fs.Uint64("width", 0, "bin width in clock units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return usageError("bin requires -file")
	}
	if *width == 0 {
		return usageError("bin requires -width")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	events, err := timetag.ReadStrobeEvents(bytes.NewReader(data), uint8(*channel), *skipWraps)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no strobe events on channel mask %#x", *channel)
	}

	times := make([]uint64, len(events))
	for i, e := range events {
		times[i] = e.T
	}
	bins, err := binning.BinAll(times, *width)
	if err != nil {
		return err
	}

	for _, b := range bins {
		fmt.Printf("%d,%d\n", b.Start, b.Count)
	}
	return nil
}

func runAlex(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("alex", flag.ContinueOnError)
	file := fs.String("file", "", "timetag file")
	width := fs.Uint64("bin-width", 0, "bin width in clock units")
	startOffset := fs.Uint64("start-offset", 0, "excitation settling offset in clock units")
	skipWraps := fs.Int("skip-wraps", 1, "wraparound records to skip")
	out := fs.String("out", "", "output JSON path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return usageError("alex requires -file")
	}
	if *width == 0 {
		return usageError("alex requires -bin-width")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	in := alex.Input{}
	if in.DonorEmission, err = timetag.ReadStrobeEvents(bytes.NewReader(data), 0x1, *skipWraps); err != nil {
		return err
	}
	if in.AcceptorEmission, err = timetag.ReadStrobeEvents(bytes.NewReader(data), 0x2, *skipWraps); err != nil {
		return err
	}
	if in.DonorExcitation, err = timetag.ReadDeltaEvents(bytes.NewReader(data), 0, *skipWraps); err != nil {
		return err
	}
	if in.AcceptorExcitation, err = timetag.ReadDeltaEvents(bytes.NewReader(data), 1, *skipWraps); err != nil {
		return err
	}

	bins, err := alex.BinChannels(in, alex.Config{BinWidth: *width, ExcitationOffset: *startOffset})
	if err != nil {
		return err
	}

	e := alex.ProximityRatio(bins)
	s := alex.Stoichiometry(bins)
	eSummary, err := alex.Summarize(e)
	if err != nil {
		return err
	}
	sSummary, err := alex.Summarize(s)
	if err != nil {
		return err
	}

	report := struct {
		Bins                  int          `json:"bins"`
		ProximityRatio        []float64    `json:"proximity_ratio"`
		Stoichiometry         []float64    `json:"stoichiometry"`
		ProximityRatioSummary alex.Summary `json:"proximity_ratio_summary"`
		StoichiometrySummary  alex.Summary `json:"stoichiometry_summary"`
	}{
		Bins:                  bins.NumBins(),
		ProximityRatio:        e,
		Stoichiometry:         s,
		ProximityRatioSummary: eSummary,
		StoichiometrySummary:  sSummary,
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(string(payload))
		return nil
	}
	return os.WriteFile(*out, payload, 0o644)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "photonlab.db", "sqlite database path")
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := papi.New(ctx, papi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no fit runs")
		return nil
	}
	if *limit > 0 && len(runs) > *limit {
		runs = runs[:*limit]
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  %-18s chi^2/dof=%g\n", r.ID, r.CreatedAtUTC, r.Model, r.ReducedChiSquare)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "fit run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "photonlab.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("show requires -id")
	}

	client, err := papi.New(ctx, papi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	run, ok, err := client.Run(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no fit run %s", *id)
	}

	payload, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: photonlabctl <models|fit|bin|alex|runs|show> [flags]", msg)
}
