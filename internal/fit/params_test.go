package fit

import (
	"errors"
	"math"
	"testing"
)

func twoCurves() []Curve {
	return []Curve{
		{Name: "c0", Lag: []float64{1, 2, 3}, G: []float64{3, 5, 7}, Var: []float64{1, 1, 1}},
		{Name: "c1", Lag: []float64{1, 2, 3}, G: []float64{7, 9, 11}, Var: []float64{1, 1, 1}},
	}
}

func TestNewParamsCopiesDefaults(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves()[:1])
	if err != nil {
		t.Fatalf("new params: %v", err)
	}

	a, ok := p.Get("a")
	if !ok {
		t.Fatal("missing parameter a")
	}
	if a.Scope != ScopeFitted {
		t.Fatalf("expected default scope fitted, got %s", a.Scope)
	}
	if v, ok := a.Value.(Scalar); !ok || v != 1 {
		t.Fatalf("expected default a=1, got %+v", a.Value)
	}
	if names := p.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected declaration order: %v", names)
	}
}

func TestNewParamsRejectsEmptyCurveList(t *testing.T) {
	if _, err := NewParams(LinearModel{}, nil); !errors.Is(err, ErrNoCurves) {
		t.Fatalf("expected ErrNoCurves, got %v", err)
	}
}

func TestNewParamsRejectsRaggedCurve(t *testing.T) {
	bad := []Curve{{Lag: []float64{1, 2}, G: []float64{1}, Var: []float64{1, 1}}}
	if _, err := NewParams(LinearModel{}, bad); !errors.Is(err, ErrCurveShape) {
		t.Fatalf("expected ErrCurveShape, got %v", err)
	}
}

func TestValidateRejectsInvalidScope(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.SetScope("a", Scope("frozen")); err != nil {
		t.Fatalf("set scope: %v", err)
	}
	if err := p.Validate(); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
}

func TestValidateRejectsPerCurveLengthMismatch(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.SetValue("a", PerCurve{1, 2, 3}); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := p.Validate(); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestValidatePartitionsInDeclarationOrder(t *testing.T) {
	p, err := NewParams(DiffusionModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	fitted := p.Fitted()
	if len(fitted) != 2 || fitted[0] != "n" || fitted[1] != "tau_d" {
		t.Fatalf("unexpected fitted partition: %v", fitted)
	}
	fixed := p.Fixed()
	if len(fixed) != 2 || fixed[0] != "aspect" || fixed[1] != "offset" {
		t.Fatalf("unexpected fixed partition: %v", fixed)
	}
}

func TestPackRequiresValidate(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if _, err := p.Pack(); !errors.Is(err, ErrNotValidated) {
		t.Fatalf("expected ErrNotValidated, got %v", err)
	}
	if err := p.Unpack([]float64{1, 2}); !errors.Is(err, ErrNotValidated) {
		t.Fatalf("expected ErrNotValidated, got %v", err)
	}
}

func TestPackedLengthInvariant(t *testing.T) {
	// One scalar fitted, one per-curve fitted across two curves: 1 + 1*2.
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.SetValue("b", PerCurve{1, 5}); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	packed, err := p.Pack()
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(packed) != 3 {
		t.Fatalf("expected packed length 3, got %d", len(packed))
	}
	if packed[0] != 1 || packed[1] != 1 || packed[2] != 5 {
		t.Fatalf("unexpected packed layout: %v", packed)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.SetValue("a", Scalar(2.5)); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := p.SetValue("b", PerCurve{1.25, -4}); err != nil {
		t.Fatalf("set b: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	packed, err := p.Pack()
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if err := p.Unpack(packed); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	a, _ := p.Get("a")
	if v := a.Value.(Scalar); v != 2.5 {
		t.Fatalf("round trip changed a: %v", v)
	}
	b, _ := p.Get("b")
	bv := b.Value.(PerCurve)
	if len(bv) != 2 || bv[0] != 1.25 || bv[1] != -4 {
		t.Fatalf("round trip changed b: %v", bv)
	}
}

func TestUnpackRejectsWrongLength(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := p.Unpack([]float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch for short vector, got %v", err)
	}
	if err := p.Unpack([]float64{1, 2, 3}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch for long vector, got %v", err)
	}
}

func TestCurveParamsResolvesEveryParameter(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.SetValue("b", PerCurve{1, 5}); err != nil {
		t.Fatalf("set b: %v", err)
	}

	for i, wantB := range []float64{1, 5} {
		cp, err := p.CurveParams(i)
		if err != nil {
			t.Fatalf("curve params %d: %v", i, err)
		}
		if len(cp) != 2 {
			t.Fatalf("expected one entry per declared parameter, got %v", cp)
		}
		if cp["a"] != 1 {
			t.Fatalf("curve %d: scalar a not passed through: %v", i, cp)
		}
		if cp["b"] != wantB {
			t.Fatalf("curve %d: expected b=%g, got %g", i, wantB, cp["b"])
		}
	}
}

func TestCurveParamsRejectsOutOfRangeIndex(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if _, err := p.CurveParams(-1); !errors.Is(err, ErrCurveIndex) {
		t.Fatalf("expected ErrCurveIndex for -1, got %v", err)
	}
	if _, err := p.CurveParams(2); !errors.Is(err, ErrCurveIndex) {
		t.Fatalf("expected ErrCurveIndex for 2, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, err := NewParams(LinearModel{}, twoCurves())
	if err != nil {
		t.Fatalf("new params: %v", err)
	}
	if err := p.SetValue("b", PerCurve{1, 5}); err != nil {
		t.Fatalf("set b: %v", err)
	}

	clone := p.Clone()
	if err := clone.SetValue("a", Scalar(99)); err != nil {
		t.Fatalf("set clone a: %v", err)
	}
	if err := clone.SetValue("b", PerCurve{-1, -2}); err != nil {
		t.Fatalf("set clone b: %v", err)
	}

	a, _ := p.Get("a")
	if v := a.Value.(Scalar); v != 1 {
		t.Fatalf("clone mutation leaked into original a: %v", v)
	}
	b, _ := p.Get("b")
	if bv := b.Value.(PerCurve); bv[0] != 1 || bv[1] != 5 {
		t.Fatalf("clone mutation leaked into original b: %v", bv)
	}
}

func TestDiffusionModelShape(t *testing.T) {
	p := map[string]float64{"n": 2, "tau_d": 1e-3, "aspect": 10, "offset": 0}
	lags := []float64{1e-6, 1e-4, 1e-2, 1}
	g := DiffusionModel{}.Eval(p, lags)

	if len(g) != len(lags) {
		t.Fatalf("expected %d values, got %d", len(lags), len(g))
	}
	if math.Abs(g[0]-0.5) > 1e-3 {
		t.Fatalf("expected G(tau<<tau_d) ~ 1/n = 0.5, got %g", g[0])
	}
	for i := 1; i < len(g); i++ {
		if g[i] >= g[i-1] {
			t.Fatalf("correlation must decay: %v", g)
		}
	}
}

func TestDiffusionTripletReducesToDiffusion(t *testing.T) {
	p := map[string]float64{"n": 1, "tau_d": 1e-3, "aspect": 5, "offset": 0.2, "f_triplet": 0, "tau_f": 1e-6}
	lags := []float64{1e-6, 1e-4, 1e-2}

	plain := DiffusionModel{}.Eval(p, lags)
	triplet := DiffusionTripletModel{}.Eval(p, lags)
	for i := range lags {
		if math.Abs(plain[i]-triplet[i]) > 1e-12 {
			t.Fatalf("zero triplet fraction must match plain diffusion at %g: %g vs %g", lags[i], plain[i], triplet[i])
		}
	}
}
