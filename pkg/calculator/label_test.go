package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/pkg/models"
)

func at(customer string, y int, m time.Month, d int) models.Transaction {
	return models.Transaction{
		InvoiceNo:   customer + "-" + time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format("20060102"),
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(10),
		InvoiceDate: time.Date(y, m, d, 12, 0, 0, 0, time.UTC),
		CustomerID:  customer,
	}
}

func TestGenerateLabel_Window(t *testing.T) {
	tx := table(
		at("buyer", 2010, 12, 15),
		at("before", 2010, 11, 20),
		at("after", 2011, 1, 5),
	)
	cutoff := time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC)
	buyers := GenerateLabel(tx, cutoff, 30)

	assert.True(t, buyers.Has("buyer"))
	assert.False(t, buyers.Has("before"))
	assert.False(t, buyers.Has("after"))
	assert.Len(t, buyers, 1)
}

func TestGenerateLabel_Boundaries(t *testing.T) {
	cutoff := time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC)
	onCutoff := models.Transaction{CustomerID: "on", InvoiceNo: "1", InvoiceDate: cutoff}
	atEnd := models.Transaction{CustomerID: "end", InvoiceNo: "2", InvoiceDate: cutoff.AddDate(0, 0, 30)}
	pastEnd := models.Transaction{CustomerID: "past", InvoiceNo: "3", InvoiceDate: cutoff.AddDate(0, 0, 30).Add(time.Second)}

	buyers := GenerateLabel(table(onCutoff, atEnd, pastEnd), cutoff, 30)
	assert.False(t, buyers.Has("on"))
	assert.True(t, buyers.Has("end"))
	assert.False(t, buyers.Has("past"))
}

func TestBuildLabeledDataset(t *testing.T) {
	tx := table(
		at("A", 2010, 11, 1),
		at("A", 2010, 11, 20),
		at("A", 2010, 12, 10),
		at("B", 2010, 10, 5),
		at("C", 2010, 12, 20), // only after cutoff: no features
	)
	cutoff := time.Date(2010, 11, 30, 0, 0, 0, 0, time.UTC)
	examples, features, err := BuildLabeledDataset(tx, cutoff, DefaultLabelWindowDays, models.FeatureOptions{})
	require.NoError(t, err)
	require.Len(t, examples, 2)
	require.Len(t, features.Customers, 2)

	assert.Equal(t, "A", examples[0].CustomerID)
	assert.Equal(t, 1, examples[0].NextMonthPurchase)
	assert.Equal(t, 2.0, examples[0].Frequency)
	assert.Equal(t, 20.0, examples[0].Monetary)
	assert.Equal(t, 10.0, examples[0].Recency)

	assert.Equal(t, "B", examples[1].CustomerID)
	assert.Equal(t, 0, examples[1].NextMonthPurchase)
	assert.Equal(t, []float64{examples[1].Recency, 1, 10}, examples[1].Vector())
}
