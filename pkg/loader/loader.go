package loader

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"retail-insights/pkg/models"
)

var loadLog = log.WithField("prefix", "Loader")

// Load reads a .csv or .xlsx invoice-line file into a cleaned TransactionTable.
// A missing file or a missing required column is fatal; unparsable rows are
// dropped and counted in Stats.
func Load(path string, opts models.CleanOptions) (*models.TransactionTable, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &models.NotFoundError{Path: path}
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return fromRecords(path, records, opts)
}

func readCSV(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var r io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		// retail exports are commonly latin1
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse csv %s", path)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &models.SchemaError{Path: path, Column: ColInvoiceNo}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q of %s", sheets[0], path)
	}
	return rows, nil
}

func fromRecords(path string, records [][]string, opts models.CleanOptions) (*models.TransactionTable, error) {
	headerAt := -1
	for i, rec := range records {
		if !blank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &models.SchemaError{Path: path, Column: ColInvoiceNo}
	}
	idx, err := indexHeader(path, records[headerAt])
	if err != nil {
		return nil, err
	}

	table := &models.TransactionTable{Source: path}
	parsed := make([]models.Transaction, 0, len(records)-headerAt-1)
	for i := headerAt + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		table.Stats.RowsRead++
		tx, err := idx.parseRecord(rec)
		if err != nil {
			NoteMalformed(&table.Stats, i+1)
			loadLog.WithFields(log.Fields{"file": path, "line": i + 1}).Debugf("row dropped: %v", err)
			continue
		}
		parsed = append(parsed, tx)
	}
	table.Rows = Clean(parsed, &table.Stats, opts)
	LogStats(path, table)
	return table, nil
}

// LogStats writes the load summary.
func LogStats(source string, table *models.TransactionTable) {
	s := table.Stats
	entry := loadLog.WithFields(log.Fields{
		"source":                source,
		"rows_read":             s.RowsRead,
		"rows_kept":             len(table.Rows),
		"malformed_dropped":     s.MalformedDropped,
		"missing_customer":      s.MissingCustomer,
		"cancellations_dropped": s.CancellationsDropped,
		"non_positive_dropped":  s.NonPositiveDropped,
	})
	if s.MalformedDropped > 0 {
		entry.WithField("first_malformed_lines", s.MalformedLines).Warn("Malformed rows dropped.")
		return
	}
	entry.Info("Transactions loaded.")
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
