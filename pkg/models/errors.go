package models

import "fmt"

// NotFoundError: an input file or a persisted model file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// SchemaError: a required column is absent.
type SchemaError struct {
	Path   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: required column %q missing", e.Path, e.Column)
}

// DegenerateInputError reports a metric whose population is too small or too
// uniform for quantile scoring. It is recovered with a fallback score and
// returned to the caller as a diagnostic.
type DegenerateInputError struct {
	Metric    string
	Customers int
	Distinct  int
	Reason    string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate %s: %s (customers=%d distinct=%d)", e.Metric, e.Reason, e.Customers, e.Distinct)
}

// FeatureShapeError: an inference vector does not match the fitted feature list.
type FeatureShapeError struct {
	Want int
	Got  int
}

func (e *FeatureShapeError) Error() string {
	return fmt.Sprintf("feature vector has %d values, model expects %d", e.Got, e.Want)
}

// DivisionGuardError flags a ratio with a zero denominator. It never escapes
// the aggregator; the documented fallback replaces the value.
type DivisionGuardError struct {
	CustomerID string
	Field      string
}

func (e *DivisionGuardError) Error() string {
	return fmt.Sprintf("customer %s: zero denominator computing %s", e.CustomerID, e.Field)
}

// ModelNotLoadedError: inference was attempted without a loaded artifact.
type ModelNotLoadedError struct {
	Dir string
	Err error
}

func (e *ModelNotLoadedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model not loaded from %q: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("model not loaded from %q", e.Dir)
}

func (e *ModelNotLoadedError) Unwrap() error { return e.Err }

// ArtifactMismatchError: classifier and scaler come from different training runs.
type ArtifactMismatchError struct {
	ModelRun  string
	ScalerRun string
}

func (e *ArtifactMismatchError) Error() string {
	return fmt.Sprintf("classifier run %s does not match scaler run %s", e.ModelRun, e.ScalerRun)
}
