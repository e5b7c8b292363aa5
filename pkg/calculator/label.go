package calculator

import (
	"time"

	log "github.com/sirupsen/logrus"

	"retail-insights/pkg/models"
)

// DefaultLabelWindowDays is the forward window used for NextMonthPurchase.
const DefaultLabelWindowDays = 30

// GenerateLabel returns the customers with at least one transaction in
// (cutoff, cutoff + windowDays]. Recompute it for every cutoff.
func GenerateLabel(tx *models.TransactionTable, cutoff time.Time, windowDays int) models.CustomerSet {
	windowEnd := cutoff.Add(time.Duration(windowDays) * day)
	buyers := models.CustomerSet{}
	for _, t := range tx.Rows {
		if t.CustomerID == "" {
			continue
		}
		if t.InvoiceDate.After(cutoff) && !t.InvoiceDate.After(windowEnd) {
			buyers[t.CustomerID] = struct{}{}
		}
	}
	featLog.WithFields(log.Fields{
		"cutoff":      cutoff.Format("2006-01-02"),
		"window_days": windowDays,
		"buyers":      len(buyers),
	}).Debug("Labels generated.")
	return buyers
}

// BuildTrainingSet joins features with the buyer set into labelled rows, in
// feature-table order.
func BuildTrainingSet(features *models.FeatureTable, buyers models.CustomerSet) []models.LabeledExample {
	out := make([]models.LabeledExample, 0, len(features.Customers))
	for _, c := range features.Customers {
		label := 0
		if buyers.Has(c.CustomerID) {
			label = 1
		}
		out = append(out, models.LabeledExample{
			CustomerID:        c.CustomerID,
			Recency:           float64(c.Recency),
			Frequency:         float64(c.Frequency),
			Monetary:          c.Monetary.InexactFloat64(),
			NextMonthPurchase: label,
		})
	}
	return out
}

// BuildLabeledDataset computes cutoff-bounded features and joins the labels
// for (cutoff, cutoff + windowDays].
func BuildLabeledDataset(tx *models.TransactionTable, cutoff time.Time, windowDays int, opts models.FeatureOptions) ([]models.LabeledExample, *models.FeatureTable, error) {
	opts.Cutoff = &cutoff
	features, err := ComputeCustomerFeatures(tx, opts)
	if err != nil {
		return nil, nil, err
	}
	buyers := GenerateLabel(tx, cutoff, windowDays)
	return BuildTrainingSet(features, buyers), features, nil
}
