package fit

import (
	"fmt"
	"sort"
)

// Scope says whether the optimizer determines a parameter or it is held
// constant.
type Scope string

const (
	ScopeFitted Scope = "fitted"
	ScopeFixed  Scope = "fixed"
)

// Value is the tagged value variant of a parameter instance: either one
// scalar shared by all curves or an independent value per curve.
type Value interface {
	isValue()
}

// Scalar is a value homogeneous across all curves.
type Scalar float64

func (Scalar) isValue() {}

// PerCurve holds one value per curve, in curve order. Its length must equal
// the number of curves the parameter set is bound to.
type PerCurve []float64

func (PerCurve) isValue() {}

// Parameter is an immutable declaration on a Model: a unique name, a short
// description, and the default scope and value copied into each new
// parameter set.
type Parameter struct {
	Name         string
	Description  string
	DefaultValue Value
	DefaultScope Scope
}

// ParamValue is the live state of one declared parameter within a session.
type ParamValue struct {
	Parameter
	Scope Scope
	Value Value
}

// Params owns the mutable parameter state of one fitting session, bound to a
// fixed, ordered list of curves. Validate must be called before Pack or
// Unpack.
type Params struct {
	curves    []Curve
	order     []string
	values    map[string]*ParamValue
	fitted    []string
	fixed     []string
	validated bool
}

// NewParams builds a parameter set for model bound to curves, copying each
// declared parameter's default scope and value.
func NewParams(model Model, curves []Curve) (*Params, error) {
	if len(curves) == 0 {
		return nil, fmt.Errorf("%w: model %s", ErrNoCurves, model.Name())
	}
	for _, c := range curves {
		if !c.wellFormed() {
			return nil, fmt.Errorf("%w: curve %q", ErrCurveShape, c.Name)
		}
	}

	p := &Params{
		curves: append([]Curve(nil), curves...),
		values: make(map[string]*ParamValue),
	}
	for _, decl := range model.Params() {
		if _, dup := p.values[decl.Name]; dup {
			return nil, fmt.Errorf("model %s declares parameter %q twice", model.Name(), decl.Name)
		}
		p.order = append(p.order, decl.Name)
		p.values[decl.Name] = &ParamValue{
			Parameter: decl,
			Scope:     decl.DefaultScope,
			Value:     cloneValue(decl.DefaultValue),
		}
	}
	return p, nil
}

// NumCurves reports the number of curves the set is bound to.
func (p *Params) NumCurves() int {
	return len(p.curves)
}

// Curves returns the bound curve list in order.
func (p *Params) Curves() []Curve {
	return p.curves
}

// Names returns the parameter names in declaration order.
func (p *Params) Names() []string {
	return append([]string(nil), p.order...)
}

// Get returns the live instance for name.
func (p *Params) Get(name string) (*ParamValue, bool) {
	v, ok := p.values[name]
	return v, ok
}

// SetValue replaces the value of name. Any mutation invalidates a previous
// Validate call.
func (p *Params) SetValue(name string, v Value) error {
	pv, ok := p.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrParamNotFound, name)
	}
	pv.Value = cloneValue(v)
	p.validated = false
	return nil
}

// SetScope replaces the scope of name.
func (p *Params) SetScope(name string, s Scope) error {
	pv, ok := p.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrParamNotFound, name)
	}
	pv.Scope = s
	p.validated = false
	return nil
}

// Validate partitions the parameters into fitted and fixed name lists in
// declaration order and checks every instance for a legal scope, a concrete
// value, and a per-curve length matching the bound curve count. It must be
// called before Pack or Unpack.
func (p *Params) Validate() error {
	p.fitted = p.fitted[:0]
	p.fixed = p.fixed[:0]
	p.validated = false

	for _, name := range p.order {
		pv := p.values[name]
		switch pv.Scope {
		case ScopeFitted:
			p.fitted = append(p.fitted, name)
		case ScopeFixed:
			p.fixed = append(p.fixed, name)
		default:
			return fmt.Errorf("%w: parameter %s has scope %q", ErrInvalidScope, name, pv.Scope)
		}

		switch v := pv.Value.(type) {
		case Scalar:
		case PerCurve:
			if len(v) != len(p.curves) {
				return fmt.Errorf("%w: parameter %s has %d per-curve values for %d curves",
					ErrLengthMismatch, name, len(v), len(p.curves))
			}
		case nil:
			return fmt.Errorf("%w: %s", ErrNoValue, name)
		default:
			return fmt.Errorf("parameter %s has unsupported value type %T", name, pv.Value)
		}
	}

	p.validated = true
	return nil
}

// Fitted returns the fitted parameter names derived by the last Validate.
func (p *Params) Fitted() []string {
	return append([]string(nil), p.fitted...)
}

// Fixed returns the fixed parameter names derived by the last Validate.
func (p *Params) Fixed() []string {
	return append([]string(nil), p.fixed...)
}

// CurveParams resolves every declared parameter to a concrete scalar for
// curve index i, indexing per-curve values and passing scalars through.
func (p *Params) CurveParams(i int) (map[string]float64, error) {
	if i < 0 || i >= len(p.curves) {
		return nil, fmt.Errorf("%w: %d of %d", ErrCurveIndex, i, len(p.curves))
	}
	out := make(map[string]float64, len(p.order))
	for _, name := range p.order {
		switch v := p.values[name].Value.(type) {
		case Scalar:
			out[name] = float64(v)
		case PerCurve:
			if i >= len(v) {
				return nil, fmt.Errorf("%w: parameter %s has %d per-curve values", ErrLengthMismatch, name, len(v))
			}
			out[name] = v[i]
		default:
			return nil, fmt.Errorf("%w: %s", ErrNoValue, name)
		}
	}
	return out, nil
}

// Pack flattens the fitted parameter values into the vector form the solver
// operates on: declaration order, per-curve values expanded in curve order.
func (p *Params) Pack() ([]float64, error) {
	if !p.validated {
		return nil, ErrNotValidated
	}
	var packed []float64
	for _, name := range p.fitted {
		switch v := p.values[name].Value.(type) {
		case Scalar:
			packed = append(packed, float64(v))
		case PerCurve:
			packed = append(packed, v...)
		}
	}
	return packed, nil
}

// Unpack is the inverse of Pack: it overwrites each fitted parameter's value
// from packed, consuming exactly the same number of elements per parameter
// that Pack produced. Fixed parameters are untouched. A vector of any other
// length fails with ErrLengthMismatch before any value is written.
func (p *Params) Unpack(packed []float64) error {
	if !p.validated {
		return ErrNotValidated
	}
	if want := p.packedLen(); len(packed) != want {
		return fmt.Errorf("%w: got %d elements, want %d", ErrLengthMismatch, len(packed), want)
	}
	i := 0
	for _, name := range p.fitted {
		pv := p.values[name]
		switch pv.Value.(type) {
		case Scalar:
			pv.Value = Scalar(packed[i])
			i++
		case PerCurve:
			n := len(p.curves)
			pv.Value = PerCurve(append([]float64(nil), packed[i:i+n]...))
			i += n
		}
	}
	return nil
}

func (p *Params) packedLen() int {
	n := 0
	for _, name := range p.fitted {
		switch p.values[name].Value.(type) {
		case Scalar:
			n++
		case PerCurve:
			n += len(p.curves)
		}
	}
	return n
}

// Clone returns an independent deep copy of the parameter set. Curve data is
// shared; it is read-only for the lifetime of the binding.
func (p *Params) Clone() *Params {
	out := &Params{
		curves:    append([]Curve(nil), p.curves...),
		order:     append([]string(nil), p.order...),
		values:    make(map[string]*ParamValue, len(p.values)),
		fitted:    append([]string(nil), p.fitted...),
		fixed:     append([]string(nil), p.fixed...),
		validated: p.validated,
	}
	for name, pv := range p.values {
		cp := *pv
		cp.Value = cloneValue(pv.Value)
		out.values[name] = &cp
	}
	return out
}

// Summary returns "scope name=value" lines for every parameter, sorted by
// name, for reports and logs.
func (p *Params) Summary() []string {
	lines := make([]string, 0, len(p.order))
	for _, name := range p.order {
		pv := p.values[name]
		switch v := pv.Value.(type) {
		case Scalar:
			lines = append(lines, fmt.Sprintf("%-6s %-12s = %g", pv.Scope, name, float64(v)))
		case PerCurve:
			lines = append(lines, fmt.Sprintf("%-6s %-12s = %v", pv.Scope, name, []float64(v)))
		default:
			lines = append(lines, fmt.Sprintf("%-6s %-12s = <unset>", pv.Scope, name))
		}
	}
	sort.Strings(lines)
	return lines
}

func cloneValue(v Value) Value {
	switch v := v.(type) {
	case PerCurve:
		return PerCurve(append([]float64(nil), v...))
	default:
		return v
	}
}
