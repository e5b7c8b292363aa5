package classifier

import (
	"math"

	"retail-insights/pkg/models"
)

// FeatureNames is the fixed input order of every fitted artifact.
var FeatureNames = []string{"Recency", "Frequency", "Monetary"}

// Scaler standardizes each feature to zero mean and unit variance using the
// statistics of the rows it was fitted on.
type Scaler struct {
	RunID    string    `json:"run_id"`
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	Samples  int       `json:"samples"`
}

// FitScaler computes per-column mean and population standard deviation.
// A constant column gets scale 1.
func FitScaler(features []string, X [][]float64) *Scaler {
	d := len(features)
	s := &Scaler{
		Features: append([]string(nil), features...),
		Mean:     make([]float64, d),
		Scale:    make([]float64, d),
		Samples:  len(X),
	}
	if len(X) == 0 {
		for j := range s.Scale {
			s.Scale[j] = 1
		}
		return s
	}
	n := float64(len(X))
	for _, row := range X {
		for j := 0; j < d; j++ {
			s.Mean[j] += row[j]
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range X {
		for j := 0; j < d; j++ {
			diff := row[j] - s.Mean[j]
			s.Scale[j] += diff * diff
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / n)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return s
}

// Transform standardizes one vector. The vector must match the fitted arity.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, &models.FeatureShapeError{Want: len(s.Mean), Got: len(x)}
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll standardizes a matrix.
func (s *Scaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		z, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = z
	}
	return out, nil
}
