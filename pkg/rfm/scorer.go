package rfm

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"retail-insights/pkg/models"
)

var rfmLog = log.WithField("prefix", "RFM")

// Segment names.
const (
	SegmentChampions = "Champions"
	SegmentActive    = "Active"
	SegmentAtRisk    = "At Risk"
	SegmentLost      = "Lost"
)

// Metric names used in diagnostics.
const (
	MetricRecency   = "Recency"
	MetricFrequency = "Frequency"
	MetricMonetary  = "Monetary"
)

const (
	quantiles    = 4
	defaultScore = 1
)

// Result is the scored population plus every degenerate condition met while
// scoring. Degenerate metrics were recovered with a fallback.
type Result struct {
	Scores     []models.RFMScore
	Degenerate []*models.DegenerateInputError
}

// Segment maps a composite score to its segment name.
func Segment(score int, p models.SegmentPolicy) string {
	switch {
	case score >= p.Champions:
		return SegmentChampions
	case score >= p.Active:
		return SegmentActive
	case score >= p.AtRisk:
		return SegmentAtRisk
	default:
		return SegmentLost
	}
}

// Score assigns quartile scores in 1..4 per metric. Frequency and Monetary
// score higher for larger values; Recency scores higher for smaller values.
func Score(features *models.FeatureTable, policy models.SegmentPolicy) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	n := len(features.Customers)
	recency := make([]float64, n)
	frequency := make([]float64, n)
	monetary := make([]float64, n)
	for i, c := range features.Customers {
		recency[i] = float64(c.Recency)
		frequency[i] = float64(c.Frequency)
		monetary[i] = c.Monetary.InexactFloat64()
	}

	res := &Result{Scores: make([]models.RFMScore, n)}
	r := res.scoreMetric(MetricRecency, recency, true)
	f := res.scoreMetric(MetricFrequency, frequency, false)
	m := res.scoreMetric(MetricMonetary, monetary, false)

	for i, c := range features.Customers {
		total := r[i] + f[i] + m[i]
		res.Scores[i] = models.RFMScore{
			CustomerID: c.CustomerID,
			RScore:     r[i],
			FScore:     f[i],
			MScore:     m[i],
			Total:      total,
			Segment:    Segment(total, policy),
		}
	}
	return res, nil
}

func (res *Result) scoreMetric(metric string, values []float64, reverse bool) []int {
	scores := make([]int, len(values))
	edges, distinct := Edges(values, quantiles)
	bins := len(edges) - 1

	if len(values) < 2 || bins < 1 {
		for i := range scores {
			scores[i] = defaultScore
		}
		res.report(&models.DegenerateInputError{
			Metric: metric, Customers: len(values), Distinct: distinct,
			Reason: "quantiles not computable, every customer scored 1",
		})
		return scores
	}
	if bins < quantiles {
		res.report(&models.DegenerateInputError{
			Metric: metric, Customers: len(values), Distinct: distinct,
			Reason: "tied quantile boundaries collapsed, fewer than four scores in use",
		})
	}

	for i, v := range values {
		bin := binOf(edges, v)
		if reverse {
			scores[i] = bins - bin
		} else {
			scores[i] = bin + 1
		}
	}
	return scores
}

func (res *Result) report(e *models.DegenerateInputError) {
	res.Degenerate = append(res.Degenerate, e)
	rfmLog.WithFields(log.Fields{
		"metric":    e.Metric,
		"customers": e.Customers,
		"distinct":  e.Distinct,
	}).Warn(e.Reason)
}

// Edges returns the de-duplicated q-quantile boundaries of values (linear
// interpolation between order statistics) and the number of distinct values.
func Edges(values []float64, q int) ([]float64, int) {
	if len(values) == 0 {
		return nil, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			distinct++
		}
	}

	edges := make([]float64, 0, q+1)
	for k := 0; k <= q; k++ {
		e := quantile(sorted, float64(k)/float64(q))
		if len(edges) == 0 || e != edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges, distinct
}

func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// binOf returns the 0-based bin of v, bins being (e[i], e[i+1]] with the first
// bin closed on the left.
func binOf(edges []float64, v float64) int {
	bin := sort.SearchFloat64s(edges[1:], v)
	if bin > len(edges)-2 {
		bin = len(edges) - 2
	}
	return bin
}

// SegmentCounts tallies customers per segment.
func SegmentCounts(scores []models.RFMScore) map[string]int {
	counts := map[string]int{}
	for _, s := range scores {
		counts[s.Segment]++
	}
	return counts
}
