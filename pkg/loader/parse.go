package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/pkg/models"
)

// Column names every source must carry.
const (
	ColInvoiceNo   = "InvoiceNo"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColUnitPrice   = "UnitPrice"
	ColInvoiceDate = "InvoiceDate"
	ColCustomerID  = "CustomerID"
	ColCountry     = "Country"
)

// RequiredColumns in the order they are checked.
var RequiredColumns = []string{
	ColInvoiceNo, ColStockCode, ColQuantity, ColUnitPrice, ColCustomerID, ColInvoiceDate, ColCountry,
}

const maxReportedLines = 10

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/06 15:04",
	"01-02-06 15:04",
	"1/2/2006",
}

// excel serial day 0
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts the layouts seen in retail exports, plus Excel serial dates.
// Values are interpreted in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		days := math.Floor(f)
		secs := math.Round((f - days) * 86400)
		return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseQuantity accepts integers and whole-valued decimals ("6.0").
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if q, err := strconv.ParseInt(s, 10, 64); err == nil {
		return q, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad quantity %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("fractional quantity %q", s)
	}
	return int64(f), nil
}

// ParseUnitPrice parses a non-negative decimal price.
func ParseUnitPrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad unit price %q", s)
	}
	if p.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative unit price %q", s)
	}
	return p, nil
}

// NormalizeCustomerID trims the identifier and strips the ".0" spreadsheets
// append to numeric ids. Null markers become "".
func NormalizeCustomerID(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na":
		return ""
	}
	if strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	return s
}

type columnIndex map[string]int

// indexHeader maps required and optional columns; the first missing required
// column yields a SchemaError.
func indexHeader(path string, header []string) (columnIndex, error) {
	byName := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		byName[strings.ToLower(h)] = i
	}
	idx := columnIndex{}
	for _, c := range RequiredColumns {
		i, ok := byName[strings.ToLower(c)]
		if !ok {
			return nil, &models.SchemaError{Path: path, Column: c}
		}
		idx[c] = i
	}
	if i, ok := byName[strings.ToLower(ColDescription)]; ok {
		idx[ColDescription] = i
	}
	return idx, nil
}

func (ci columnIndex) get(record []string, col string) string {
	i, ok := ci[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRecord builds a Transaction; any parse failure drops the row.
func (ci columnIndex) parseRecord(record []string) (models.Transaction, error) {
	qty, err := ParseQuantity(ci.get(record, ColQuantity))
	if err != nil {
		return models.Transaction{}, err
	}
	price, err := ParseUnitPrice(ci.get(record, ColUnitPrice))
	if err != nil {
		return models.Transaction{}, err
	}
	date, err := ParseDate(ci.get(record, ColInvoiceDate))
	if err != nil {
		return models.Transaction{}, err
	}
	return models.Transaction{
		InvoiceNo:   ci.get(record, ColInvoiceNo),
		StockCode:   ci.get(record, ColStockCode),
		Description: ci.get(record, ColDescription),
		Quantity:    qty,
		UnitPrice:   price,
		InvoiceDate: date,
		CustomerID:  NormalizeCustomerID(ci.get(record, ColCustomerID)),
		Country:     ci.get(record, ColCountry),
	}, nil
}

// NoteMalformed records a dropped line in the stats.
func NoteMalformed(stats *models.LoadStats, line int) {
	stats.MalformedDropped++
	if len(stats.MalformedLines) < maxReportedLines {
		stats.MalformedLines = append(stats.MalformedLines, line)
	}
}

// Clean applies the cleaning policy in order: missing CustomerID first, then
// the cancellation mode.
func Clean(rows []models.Transaction, stats *models.LoadStats, opts models.CleanOptions) []models.Transaction {
	out := rows[:0:0]
	for _, r := range rows {
		if r.CustomerID == "" {
			stats.MissingCustomer++
			continue
		}
		if opts.Cancellations == models.CancellationsDrop {
			if r.IsCancellation() {
				stats.CancellationsDropped++
				continue
			}
			if r.Quantity <= 0 {
				stats.NonPositiveDropped++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
