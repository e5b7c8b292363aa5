package classifier

import (
	"github.com/pkg/errors"

	"retail-insights/pkg/models"
)

// ModelContext holds a matched classifier/scaler pair for inference.
//
// Build it once with LoadModelContext, pass it to every prediction, and call
// Close when done; a closed or nil context rejects predictions with
// ModelNotLoadedError. Do not load from a directory a training run is writing.
type ModelContext struct {
	dir    string
	model  *Model
	scaler *Scaler
}

// Prediction is the result of one inference call.
type Prediction struct {
	Class       int
	Probability float64
}

// LoadModelContext loads the artifact pair from dir.
func LoadModelContext(dir string) (*ModelContext, error) {
	m, s, err := LoadArtifacts(dir)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return nil, &models.ModelNotLoadedError{Dir: dir, Err: err}
		}
		return nil, err
	}
	clfLog.WithField("dir", dir).WithField("run_id", m.RunID).Debug("Model context loaded.")
	return &ModelContext{dir: dir, model: m, scaler: s}, nil
}

// NewModelContext wraps an in-memory pair, e.g. straight after Train.
func NewModelContext(m *Model, s *Scaler) (*ModelContext, error) {
	if m == nil || s == nil {
		return nil, &models.ModelNotLoadedError{}
	}
	if m.RunID != s.RunID {
		return nil, &models.ArtifactMismatchError{ModelRun: m.RunID, ScalerRun: s.RunID}
	}
	return &ModelContext{model: m, scaler: s}, nil
}

// RunID identifies the training run of the loaded pair.
func (mc *ModelContext) RunID() string {
	if mc == nil || mc.model == nil {
		return ""
	}
	return mc.model.RunID
}

// Predict scores a raw (unscaled) feature vector in FeatureNames order.
func (mc *ModelContext) Predict(x []float64) (Prediction, error) {
	if mc == nil || mc.model == nil || mc.scaler == nil {
		dir := ""
		if mc != nil {
			dir = mc.dir
		}
		return Prediction{}, &models.ModelNotLoadedError{Dir: dir}
	}
	z, err := mc.scaler.Transform(x)
	if err != nil {
		return Prediction{}, err
	}
	p, err := mc.model.Probability(z)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{Probability: p}
	if p >= Threshold {
		pred.Class = 1
	}
	return pred, nil
}

// PredictOne returns the hard class and positive-class probability for one customer.
func (mc *ModelContext) PredictOne(recency, frequency, monetary float64) (int, float64, error) {
	pred, err := mc.Predict([]float64{recency, frequency, monetary})
	if err != nil {
		return 0, 0, err
	}
	return pred.Class, pred.Probability, nil
}

// Close releases the pair; later predictions fail.
func (mc *ModelContext) Close() {
	if mc == nil {
		return
	}
	mc.model = nil
	mc.scaler = nil
}
