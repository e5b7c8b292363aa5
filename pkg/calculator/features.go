package calculator

import (
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"retail-insights/pkg/models"
)

var featLog = log.WithField("prefix", "Aggregator")

const (
	day             = 24 * time.Hour
	lastMonthWindow = 30 * day
)

// customerAcc accumulates one customer's rows.
type customerAcc struct {
	id             string
	country        string
	spend          decimal.Decimal
	lastMonthSpend decimal.Decimal
	quantity       int64
	invoices       map[string]bool // invoice -> cancellation
	products       map[string]struct{}
	first, last    time.Time
}

func newAcc(t models.Transaction) *customerAcc {
	return &customerAcc{
		id:       t.CustomerID,
		country:  t.Country,
		invoices: map[string]bool{},
		products: map[string]struct{}{},
		first:    t.InvoiceDate,
		last:     t.InvoiceDate,
	}
}

func (a *customerAcc) add(t models.Transaction, lastMonthStart time.Time) {
	line := t.LineTotal()
	a.spend = a.spend.Add(line)
	if t.InvoiceDate.After(lastMonthStart) {
		a.lastMonthSpend = a.lastMonthSpend.Add(line)
	}
	a.quantity += t.Quantity
	a.invoices[t.InvoiceNo] = t.IsCancellation()
	if t.StockCode != "" {
		a.products[t.StockCode] = struct{}{}
	}
	if t.InvoiceDate.Before(a.first) {
		a.first = t.InvoiceDate
	}
	if t.InvoiceDate.After(a.last) {
		a.last = t.InvoiceDate
	}
}

// wholeDays truncates a non-negative duration to days.
func wholeDays(d time.Duration) int {
	return int(d / day)
}

// Snapshot returns the reference date for Recency: cutoff + 1 day when a
// cutoff is given, otherwise the latest invoice date + 1 day.
func Snapshot(tx *models.TransactionTable, cutoff *time.Time) (time.Time, bool) {
	if cutoff != nil {
		return cutoff.Add(day), true
	}
	max, ok := tx.MaxInvoiceDate()
	if !ok {
		return time.Time{}, false
	}
	return max.Add(day), true
}

// ComputeCustomerFeatures derives one feature record per distinct CustomerID.
// Rows without a CustomerID are ignored. The result is sorted by CustomerID and
// is identical for identical inputs.
func ComputeCustomerFeatures(tx *models.TransactionTable, opts models.FeatureOptions) (*models.FeatureTable, error) {
	snapshot, ok := Snapshot(tx, opts.Cutoff)
	if !ok {
		return nil, &models.DegenerateInputError{Metric: "transactions", Reason: "no rows to aggregate"}
	}
	lastMonthStart := snapshot.Add(-lastMonthWindow)

	groups := map[string]*customerAcc{}
	var order []string
	for _, t := range tx.Rows {
		if t.CustomerID == "" {
			continue
		}
		if opts.Cutoff != nil && t.InvoiceDate.After(*opts.Cutoff) {
			continue
		}
		acc, seen := groups[t.CustomerID]
		if !seen {
			acc = newAcc(t)
			groups[t.CustomerID] = acc
			order = append(order, t.CustomerID)
		}
		acc.add(t, lastMonthStart)
	}
	if len(order) == 0 {
		return nil, &models.DegenerateInputError{Metric: "transactions", Reason: "no customer rows on or before the snapshot"}
	}
	sort.Strings(order)

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(order)), "aggregating customers")
	}

	out := &models.FeatureTable{Snapshot: snapshot, Cutoff: opts.Cutoff}
	out.Customers = make([]models.CustomerFeatures, 0, len(order))
	for _, id := range order {
		f, err := derive(groups[id], snapshot)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			// zero orders cannot happen for a grouped customer; exclude it if it does
			featLog.WithField("customer_id", id).Warn(err.Error())
			continue
		}
		out.Customers = append(out.Customers, f)
	}

	out.MeanPurchaseInterval = imputeIntervals(out.Customers)

	if opts.Synthetic {
		out.Synthetic = Synthesize(out.Customers, opts.Seed)
	}

	featLog.WithFields(log.Fields{
		"customers":              len(out.Customers),
		"snapshot":               snapshot.Format("2006-01-02"),
		"mean_purchase_interval": out.MeanPurchaseInterval,
		"synthetic":              opts.Synthetic,
	}).Info("Customer features computed.")
	return out, nil
}

func derive(a *customerAcc, snapshot time.Time) (models.CustomerFeatures, error) {
	numOrders := len(a.invoices)
	if numOrders == 0 {
		return models.CustomerFeatures{}, &models.DivisionGuardError{CustomerID: a.id, Field: "AOV"}
	}
	cancelled := 0
	for _, isCancel := range a.invoices {
		if isCancel {
			cancelled++
		}
	}
	orders := decimal.NewFromInt(int64(numOrders))
	tenure := wholeDays(a.last.Sub(a.first))

	f := models.CustomerFeatures{
		CustomerID:     a.id,
		Country:        a.country,
		TotalSpend:     a.spend,
		NumOrders:      numOrders,
		AOV:            a.spend.Div(orders),
		TotalQuantity:  a.quantity,
		AvgBasketSize:  float64(a.quantity) / float64(numOrders),
		UniqueProducts: len(a.products),
		FirstPurchase:  a.first,
		LastPurchase:   a.last,
		CustomerTenure: tenure,
		ReturnRate:     float64(cancelled) / float64(numOrders),
		LastMonthSpend: a.lastMonthSpend,
		Recency:        wholeDays(snapshot.Sub(a.last)),
		Frequency:      numOrders,
		Monetary:       a.spend,
	}
	if numOrders > 1 {
		f.PurchaseInterval = float64(tenure) / float64(numOrders-1)
	}
	return f, nil
}

// imputeIntervals fills PurchaseInterval for single-order customers with the
// mean over customers that have more than one order, and returns that mean.
// With no multi-order customer at all the mean is 0.
func imputeIntervals(customers []models.CustomerFeatures) float64 {
	sum, n := 0.0, 0
	for _, c := range customers {
		if c.NumOrders > 1 {
			sum += c.PurchaseInterval
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	} else if len(customers) > 0 {
		featLog.Warn((&models.DivisionGuardError{CustomerID: "*", Field: "PurchaseInterval"}).Error() +
			": no customer has more than one order, imputing 0")
	}
	for i := range customers {
		if customers[i].NumOrders <= 1 {
			customers[i].PurchaseInterval = mean
			customers[i].IntervalImputed = true
		}
	}
	return mean
}
