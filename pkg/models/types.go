package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

/*
LOAD → typed invoice lines read from a file or a table.
*/

// Transaction is one invoice line. CustomerID is empty when the source had none.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
	InvoiceDate time.Time
	CustomerID  string
	Country     string
}

// IsCancellation reports whether the line belongs to a cancellation invoice ("C" prefix).
func (t Transaction) IsCancellation() bool {
	return IsCancellationInvoice(t.InvoiceNo)
}

// LineTotal = Quantity × UnitPrice.
func (t Transaction) LineTotal() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(t.Quantity))
}

// IsCancellationInvoice reports whether an invoice number marks a return.
func IsCancellationInvoice(invoiceNo string) bool {
	return len(invoiceNo) > 0 && (invoiceNo[0] == 'C' || invoiceNo[0] == 'c')
}

// LoadStats counts what the loader read and what it dropped.
type LoadStats struct {
	RowsRead             int
	MalformedDropped     int   // unparsable date/quantity/price
	MalformedLines       []int // first few offending line numbers, for diagnostics
	MissingCustomer      int
	CancellationsDropped int
	NonPositiveDropped   int
}

// TransactionTable is the validated, cleaned transaction set.
type TransactionTable struct {
	Source string
	Rows   []Transaction
	Stats  LoadStats
}

// MaxInvoiceDate returns the latest invoice date in the table; ok is false when empty.
func (tt *TransactionTable) MaxInvoiceDate() (time.Time, bool) {
	if tt == nil || len(tt.Rows) == 0 {
		return time.Time{}, false
	}
	max := tt.Rows[0].InvoiceDate
	for _, r := range tt.Rows[1:] {
		if r.InvoiceDate.After(max) {
			max = r.InvoiceDate
		}
	}
	return max, true
}

/*
COMPUTE → one record per customer.
*/

// CustomerFeatures is the derived per-customer feature record.
// Recency, Frequency and Monetary are the RFM aliases.
type CustomerFeatures struct {
	CustomerID       string
	Country          string
	TotalSpend       decimal.Decimal
	NumOrders        int
	AOV              decimal.Decimal
	TotalQuantity    int64
	AvgBasketSize    float64 // TotalQuantity / NumOrders
	UniqueProducts   int
	FirstPurchase    time.Time
	LastPurchase     time.Time
	CustomerTenure   int     // days
	PurchaseInterval float64 // days
	IntervalImputed  bool    // true when PurchaseInterval is the population mean
	ReturnRate       float64 // ratio in [0,1] of cancellation invoices
	LastMonthSpend   decimal.Decimal
	Recency          int
	Frequency        int
	Monetary         decimal.Decimal
}

// FeatureTable holds feature records sorted by CustomerID.
type FeatureTable struct {
	Snapshot             time.Time
	Cutoff               *time.Time
	MeanPurchaseInterval float64
	Customers            []CustomerFeatures
	Synthetic            []SyntheticColumns // only filled in synthetic mode
}

// Lookup returns the feature record for a customer.
func (ft *FeatureTable) Lookup(customerID string) (CustomerFeatures, bool) {
	i := sort.Search(len(ft.Customers), func(i int) bool {
		return ft.Customers[i].CustomerID >= customerID
	})
	if i < len(ft.Customers) && ft.Customers[i].CustomerID == customerID {
		return ft.Customers[i], true
	}
	return CustomerFeatures{}, false
}

// SyntheticColumns are generated, not derived. They exist only for dashboard
// demos and must never be read as real customer behaviour.
type SyntheticColumns struct {
	CustomerID     string
	ChurnProb      float64
	ConversionRate float64 // percent
}

/*
RFM → quartile scores and segment.
*/

// RFMScore is the scored view of one customer.
type RFMScore struct {
	CustomerID string
	RScore     int
	FScore     int
	MScore     int
	Total      int
	Segment    string
}

/*
LABEL / TRAIN
*/

// CustomerSet is a set of customer identities.
type CustomerSet map[string]struct{}

// Has reports membership.
func (s CustomerSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// LabeledExample is a training row: (Recency, Frequency, Monetary) → NextMonthPurchase.
type LabeledExample struct {
	CustomerID        string
	Recency           float64
	Frequency         float64
	Monetary          float64
	NextMonthPurchase int
}

// Vector returns the features in the model's fixed order.
func (e LabeledExample) Vector() []float64 {
	return []float64{e.Recency, e.Frequency, e.Monetary}
}

// ClassReport holds the per-class diagnostics.
type ClassReport struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Metrics are computed on the held-out partition.
type Metrics struct {
	RunID      string             `json:"run_id"`
	TrainSize  int                `json:"train_size"`
	TestSize   int                `json:"test_size"`
	Classes    [2]ClassReport     `json:"classes"`
	Confusion  [2][2]int          `json:"confusion"` // [actual][predicted]
	Accuracy   float64            `json:"accuracy"`
	ROCAUC     float64            `json:"roc_auc"`
	AUCDefined bool               `json:"auc_defined"` // false when the test partition has one class
	Iterations int                `json:"iterations"`
	Coef       map[string]float64 `json:"coef"`
}
