package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ParamState is the persisted value of one fit parameter: its scope and
// either a single shared value or one value per curve.
type ParamState struct {
	Scope    string    `json:"scope"`
	PerCurve bool      `json:"per_curve,omitempty"`
	Values   []float64 `json:"values"`
}

// FitRun is one completed regression: the model used, the optimized
// parameter state, and goodness-of-fit diagnostics.
type FitRun struct {
	VersionedRecord
	ID               string                `json:"id"`
	Model            string                `json:"model"`
	CreatedAtUTC     string                `json:"created_at_utc"`
	CurveNames       []string              `json:"curve_names,omitempty"`
	Params           map[string]ParamState `json:"params"`
	ChiSquare        float64               `json:"chi_square"`
	ReducedChiSquare float64               `json:"reduced_chi_square"`
	DegreesOfFreedom int                   `json:"degrees_of_freedom"`
}
