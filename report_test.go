package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"retail-insights/pkg/models"
	"retail-insights/pkg/rfm"
)

func TestCapRows(t *testing.T) {
	assert.Equal(t, 5, capRows(5, 0))
	assert.Equal(t, 3, capRows(5, 3))
	assert.Equal(t, 5, capRows(5, 9))
}

func TestRenderFeatures_FlagsSyntheticAndImputed(t *testing.T) {
	ft := &models.FeatureTable{
		Snapshot: time.Date(2011, 12, 10, 0, 0, 0, 0, time.UTC),
		Customers: []models.CustomerFeatures{{
			CustomerID:      "12347",
			Country:         "Iceland",
			TotalSpend:      decimal.RequireFromString("150"),
			AOV:             decimal.RequireFromString("75"),
			NumOrders:       2,
			IntervalImputed: true,
		}},
		Synthetic: []models.SyntheticColumns{{CustomerID: "12347", ChurnProb: 0.25, ConversionRate: 4}},
	}
	var buf bytes.Buffer
	renderFeatures(&buf, ft, 0)
	out := buf.String()
	assert.Contains(t, out, "2011-12-10")
	assert.Contains(t, out, "150.00")
	assert.Contains(t, out, "75.00")
	assert.Contains(t, out, "0.0~")
	assert.Contains(t, out, "synthetic demo columns")
}

func TestRenderRFM_SegmentsAndWarnings(t *testing.T) {
	res := &rfm.Result{
		Scores: []models.RFMScore{
			{CustomerID: "a", RScore: 4, FScore: 4, MScore: 4, Total: 12, Segment: rfm.SegmentChampions},
			{CustomerID: "b", RScore: 1, FScore: 1, MScore: 1, Total: 3, Segment: rfm.SegmentLost},
		},
		Degenerate: []*models.DegenerateInputError{{Metric: rfm.MetricFrequency, Customers: 2, Distinct: 1, Reason: "tied"}},
	}
	var buf bytes.Buffer
	renderRFM(&buf, res, 0)
	out := buf.String()
	assert.Contains(t, out, rfm.SegmentChampions)
	assert.Contains(t, out, rfm.SegmentAtRisk)
	assert.Contains(t, out, "warning:")
}

func TestRenderBuyers_Sorted(t *testing.T) {
	var buf bytes.Buffer
	renderBuyers(&buf, models.CustomerSet{"b": {}, "a": {}}, time.Date(2011, 11, 1, 0, 0, 0, 0, time.UTC), 30)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"2 customers purchased in (2011-11-01, +30d]", "a", "b"}, lines)
}

func TestRenderMetrics_UndefinedAUC(t *testing.T) {
	m := &models.Metrics{
		RunID:    "run-1",
		TestSize: 2,
		Classes:  [2]models.ClassReport{{Class: 0, Support: 2}, {Class: 1}},
		Coef:     map[string]float64{"Recency": -1.5, "Frequency": 0.5, "Monetary": 0.25},
	}
	var buf bytes.Buffer
	renderMetrics(&buf, m)
	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "ROC-AUC undefined")
	assert.Contains(t, out, "-1.5000")
}
