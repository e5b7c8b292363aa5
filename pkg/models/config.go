package models

import (
	"fmt"
	"strings"
	"time"
)

// CancellationMode selects how cancellation rows are treated at load time.
type CancellationMode string

const (
	// CancellationsRetain keeps returns so ReturnRate and net spend see them.
	CancellationsRetain CancellationMode = "retain"
	// CancellationsDrop removes "C" invoices and rows with Quantity <= 0.
	CancellationsDrop CancellationMode = "drop"
)

// ParseCancellationMode accepts "retain" or "drop" (case-insensitive).
func ParseCancellationMode(s string) (CancellationMode, error) {
	switch CancellationMode(strings.ToLower(strings.TrimSpace(s))) {
	case CancellationsRetain, "":
		return CancellationsRetain, nil
	case CancellationsDrop:
		return CancellationsDrop, nil
	}
	return "", fmt.Errorf("unknown cancellation mode %q (want retain|drop)", s)
}

// CleanOptions drives the loader's cleaning pass.
type CleanOptions struct {
	Cancellations CancellationMode
}

// FeatureOptions drives the aggregator.
type FeatureOptions struct {
	// Cutoff, when set, restricts aggregation to InvoiceDate <= Cutoff and
	// puts the snapshot at Cutoff + 1 day.
	Cutoff *time.Time
	// Synthetic fills FeatureTable.Synthetic from a seeded source.
	Synthetic bool
	Seed      int64
	Progress  bool
}

// SegmentPolicy holds the inclusive lower bounds of each named segment.
type SegmentPolicy struct {
	Champions int
	Active    int
	AtRisk    int
}

// DefaultSegmentPolicy: >=10 Champions, >=7 Active, >=5 At Risk, else Lost.
func DefaultSegmentPolicy() SegmentPolicy {
	return SegmentPolicy{Champions: 10, Active: 7, AtRisk: 5}
}

// Validate requires strictly descending thresholds.
func (p SegmentPolicy) Validate() error {
	if !(p.Champions > p.Active && p.Active > p.AtRisk) {
		return fmt.Errorf("segment thresholds must descend: champions=%d active=%d at_risk=%d",
			p.Champions, p.Active, p.AtRisk)
	}
	return nil
}

// TrainOptions drives the classifier trainer.
type TrainOptions struct {
	TestFraction float64
	Seed         int64
	MaxIter      int
	L2           float64 // penalty strength on weights (1/C)
	Tolerance    float64
	Progress     bool
}

// DefaultTrainOptions mirrors the offline training run: 25% test, seed 42.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestFraction: 0.25, Seed: 42, MaxIter: 100, L2: 1.0, Tolerance: 1e-8}
}
