package classifier

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"retail-insights/pkg/models"
)

var clfLog = log.WithField("prefix", "Classifier")

// Train splits examples (stratified, seeded), fits the scaler on the training
// rows only, fits the classifier on the scaled training rows and evaluates on
// the held-out rows. Model and scaler share a fresh run id.
func Train(examples []models.LabeledExample, opts models.TrainOptions) (*Model, *Scaler, *models.Metrics, error) {
	if opts.L2 <= 0 {
		return nil, nil, nil, errors.Errorf("l2 penalty must be positive, got %v", opts.L2)
	}
	labels := make([]int, len(examples))
	for i, e := range examples {
		if e.NextMonthPurchase != 0 && e.NextMonthPurchase != 1 {
			return nil, nil, nil, errors.Errorf("customer %s: label %d not in {0,1}", e.CustomerID, e.NextMonthPurchase)
		}
		labels[i] = e.NextMonthPurchase
	}
	trainIdx, testIdx, err := StratifiedSplit(labels, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "split")
	}

	xTrain, yTrain := gather(examples, trainIdx)
	xTest, yTest := gather(examples, testIdx)

	scaler := FitScaler(FeatureNames, xTrain)
	zTrain, err := scaler.TransformAll(xTrain)
	if err != nil {
		return nil, nil, nil, err
	}
	zTest, err := scaler.TransformAll(xTest)
	if err != nil {
		return nil, nil, nil, err
	}

	model, err := FitLogistic(FeatureNames, zTrain, yTrain, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if !model.Converged {
		clfLog.WithField("iterations", model.Iterations).Warn("Optimizer stopped before convergence.")
	}

	proba := make([]float64, len(zTest))
	for i, z := range zTest {
		if proba[i], err = model.Probability(z); err != nil {
			return nil, nil, nil, err
		}
	}

	runID := uuid.New().String()
	model.RunID = runID
	scaler.RunID = runID

	metrics := Evaluate(yTest, proba)
	metrics.RunID = runID
	metrics.TrainSize = len(trainIdx)
	metrics.TestSize = len(testIdx)
	metrics.Iterations = model.Iterations
	metrics.Coef = map[string]float64{}
	for j, name := range model.Features {
		metrics.Coef[name] = model.Coef[j]
	}

	clfLog.WithFields(log.Fields{
		"run_id":     runID,
		"train":      len(trainIdx),
		"test":       len(testIdx),
		"iterations": model.Iterations,
		"accuracy":   metrics.Accuracy,
		"roc_auc":    metrics.ROCAUC,
	}).Info("Classifier trained.")
	return model, scaler, &metrics, nil
}

func gather(examples []models.LabeledExample, idx []int) ([][]float64, []int) {
	X := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for k, i := range idx {
		X[k] = examples[i].Vector()
		y[k] = examples[i].NextMonthPurchase
	}
	return X, y
}
