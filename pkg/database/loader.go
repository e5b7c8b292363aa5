package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"retail-insights/pkg/loader"
	"retail-insights/pkg/models"
)

var dbLog = log.WithField("prefix", "Database")

const erNoSuchTable = 1146

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open accepts mariadb:// or mysql:// URLs as well as native driver DSNs.
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// selectQuery reads invoice lines with the same column contract as the file loader.
func selectQuery(table string) string {
	return fmt.Sprintf(`
		SELECT InvoiceNo, StockCode, COALESCE(Description, ''), Quantity,
		       UnitPrice, InvoiceDate, CustomerID, COALESCE(Country, '')
		FROM %s
		ORDER BY InvoiceDate, InvoiceNo`, table)
}

type rawRow struct {
	invoiceNo   string
	stockCode   string
	description string
	quantity    sql.NullInt64
	unitPrice   sql.NullString
	invoiceDate sql.NullTime
	customerID  sql.NullString
	country     string
}

// toTransaction converts a scanned row; nulls in the typed columns are malformed.
func (r rawRow) toTransaction() (models.Transaction, error) {
	if !r.quantity.Valid {
		return models.Transaction{}, fmt.Errorf("null quantity")
	}
	if !r.invoiceDate.Valid {
		return models.Transaction{}, fmt.Errorf("null invoice date")
	}
	if !r.unitPrice.Valid {
		return models.Transaction{}, fmt.Errorf("null unit price")
	}
	price, err := loader.ParseUnitPrice(r.unitPrice.String)
	if err != nil {
		return models.Transaction{}, err
	}
	customer := ""
	if r.customerID.Valid {
		customer = loader.NormalizeCustomerID(r.customerID.String)
	}
	return models.Transaction{
		InvoiceNo:   strings.TrimSpace(r.invoiceNo),
		StockCode:   strings.TrimSpace(r.stockCode),
		Description: r.description,
		Quantity:    r.quantity.Int64,
		UnitPrice:   price,
		InvoiceDate: r.invoiceDate.Time.UTC(),
		CustomerID:  customer,
		Country:     r.country,
	}, nil
}

// LoadTransactions reads an invoice-line table and applies the same cleaning
// policy as the file loader. An unknown table maps to NotFoundError.
func LoadTransactions(ctx context.Context, db *sql.DB, table string, opts models.CleanOptions) (*models.TransactionTable, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	source := "table:" + table

	rows, err := db.QueryContext(ctx, selectQuery(table))
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == erNoSuchTable {
			return nil, &models.NotFoundError{Path: source}
		}
		return nil, errors.Wrapf(err, "query %s", table)
	}
	defer rows.Close()

	out := &models.TransactionTable{Source: source}
	var parsed []models.Transaction
	for rows.Next() {
		out.Stats.RowsRead++
		var r rawRow
		if err := rows.Scan(&r.invoiceNo, &r.stockCode, &r.description, &r.quantity,
			&r.unitPrice, &r.invoiceDate, &r.customerID, &r.country); err != nil {
			return nil, errors.Wrapf(err, "scan %s row %d", table, out.Stats.RowsRead)
		}
		tx, err := r.toTransaction()
		if err != nil {
			loader.NoteMalformed(&out.Stats, out.Stats.RowsRead)
			dbLog.WithFields(log.Fields{"table": table, "row": out.Stats.RowsRead}).Debugf("row dropped: %v", err)
			continue
		}
		parsed = append(parsed, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate %s", table)
	}
	out.Rows = loader.Clean(parsed, &out.Stats, opts)
	loader.LogStats(source, out)
	return out, nil
}
