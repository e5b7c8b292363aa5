package classifier

import (
	"fmt"
	"math"

	"github.com/schollz/progressbar/v3"

	"retail-insights/pkg/models"
)

// Model is a binary logistic-regression classifier over standardized features.
type Model struct {
	RunID      string    `json:"run_id"`
	Features   []string  `json:"features"`
	Coef       []float64 `json:"coef"`
	Intercept  float64   `json:"intercept"`
	L2         float64   `json:"l2"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
}

// Threshold on the positive-class probability for a hard prediction.
const Threshold = 0.5

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// DecisionFunction returns w·x + b.
func (m *Model) DecisionFunction(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, &models.FeatureShapeError{Want: len(m.Coef), Got: len(x)}
	}
	z := m.Intercept
	for j, v := range x {
		z += m.Coef[j] * v
	}
	return z, nil
}

// Probability of the positive class for an already-scaled vector.
func (m *Model) Probability(x []float64) (float64, error) {
	z, err := m.DecisionFunction(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

// FitLogistic minimizes the L2-penalized log loss
//
//	sum_i logloss(y_i, sigmoid(w·x_i + b)) + l2/2 * ||w||^2
//
// with Newton's method. The intercept is not penalized.
func FitLogistic(features []string, X [][]float64, y []int, opts models.TrainOptions) (*Model, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fit: %d rows, %d labels", len(X), len(y))
	}
	d := len(features)
	p := d + 1 // last slot is the intercept
	theta := make([]float64, p)

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = 1e-8
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(maxIter), "fitting")
	}

	m := &Model{Features: append([]string(nil), features...), L2: opts.L2}
	for iter := 1; iter <= maxIter; iter++ {
		grad := make([]float64, p)
		hess := make([][]float64, p)
		for k := range hess {
			hess[k] = make([]float64, p)
		}
		for i, row := range X {
			if len(row) != d {
				return nil, &models.FeatureShapeError{Want: d, Got: len(row)}
			}
			z := theta[d]
			for j := 0; j < d; j++ {
				z += theta[j] * row[j]
			}
			mu := sigmoid(z)
			r := mu - float64(y[i])
			w := mu * (1 - mu)
			for a := 0; a < p; a++ {
				xa := 1.0
				if a < d {
					xa = row[a]
				}
				grad[a] += r * xa
				for b := a; b < p; b++ {
					xb := 1.0
					if b < d {
						xb = row[b]
					}
					hess[a][b] += w * xa * xb
				}
			}
		}
		for a := 0; a < p; a++ {
			for b := 0; b < a; b++ {
				hess[a][b] = hess[b][a]
			}
			if a < d {
				grad[a] += opts.L2 * theta[a]
				hess[a][a] += opts.L2
			}
			hess[a][a] += 1e-10
		}

		step, err := solve(hess, grad)
		if err != nil {
			return nil, err
		}
		maxStep := 0.0
		for k := range theta {
			theta[k] -= step[k]
			maxStep = math.Max(maxStep, math.Abs(step[k]))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		m.Iterations = iter
		if maxStep < tol {
			m.Converged = true
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	m.Coef = append([]float64(nil), theta[:d]...)
	m.Intercept = theta[d]
	return m, nil
}

// solve returns x with A x = b by Gaussian elimination with partial pivoting.
// A and b are overwritten.
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(A[r][col]) > math.Abs(A[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(A[pivot][col]) < 1e-300 {
			return nil, fmt.Errorf("fit: singular hessian at column %d", col)
		}
		A[col], A[pivot] = A[pivot], A[col]
		b[col], b[pivot] = b[pivot], b[col]
		for r := col + 1; r < n; r++ {
			f := A[r][col] / A[col][col]
			for c := col; c < n; c++ {
				A[r][c] -= f * A[col][c]
			}
			b[r] -= f * b[col]
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := b[r]
		for c := r + 1; c < n; c++ {
			s -= A[r][c] * x[c]
		}
		x[r] = s / A[r][r]
	}
	return x, nil
}
