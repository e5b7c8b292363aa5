package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/pkg/models"
)

const sampleCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART,6,12/1/2010 8:26,2.55,17850.0,United Kingdom
536366,22633,HAND WARMER,6,12/1/2010 8:28,1.85,17850.0,United Kingdom
536367,84879,ASSORTED BIRD,32,2010-12-01 08:34:00,1.69,13047,United Kingdom
C536379,D,Discount,-1,12/1/2010 9:41,27.50,14527,United Kingdom
536380,22961,JAM JAR,abc,12/1/2010 9:45,1.45,14527,United Kingdom
536381,22139,RETROSPOT,1,not-a-date,4.25,14527,United Kingdom
536382,22140,RETROSPOT,2,12/1/2010 9:50,4.25,,United Kingdom
536390,22141,RETROSPOT,-2,12/1/2010 10:00,4.25,14527,United Kingdom
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), models.CleanOptions{})
	var nf *models.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Contains(t, nf.Path, "missing.csv")
}

func TestLoad_MissingColumn(t *testing.T) {
	p := writeFile(t, "bad.csv", "InvoiceNo,StockCode,Quantity,UnitPrice,InvoiceDate,Country\n1,A,1,1.0,2010-12-01,UK\n")
	_, err := Load(p, models.CleanOptions{})
	var se *models.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, ColCustomerID, se.Column)
	assert.Equal(t, p, se.Path)
}

func TestLoad_RetainCancellations(t *testing.T) {
	p := writeFile(t, "retail.csv", sampleCSV)
	table, err := Load(p, models.CleanOptions{Cancellations: models.CancellationsRetain})
	require.NoError(t, err)

	assert.Equal(t, 8, table.Stats.RowsRead)
	assert.Equal(t, 2, table.Stats.MalformedDropped)
	assert.Equal(t, []int{6, 7}, table.Stats.MalformedLines)
	assert.Equal(t, 1, table.Stats.MissingCustomer)
	require.Len(t, table.Rows, 5)
	assert.Equal(t, 0, table.Stats.NonPositiveDropped)

	first := table.Rows[0]
	assert.Equal(t, "17850", first.CustomerID)
	assert.Equal(t, int64(6), first.Quantity)
	assert.Equal(t, "2.55", first.UnitPrice.String())
	assert.Equal(t, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), first.InvoiceDate)
	assert.Equal(t, "WHITE HANGING HEART", first.Description)

	assert.True(t, table.Rows[3].IsCancellation())
	assert.Equal(t, int64(-1), table.Rows[3].Quantity)
}

func TestLoad_DropCancellations(t *testing.T) {
	p := writeFile(t, "retail.csv", sampleCSV)
	table, err := Load(p, models.CleanOptions{Cancellations: models.CancellationsDrop})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Stats.CancellationsDropped)
	assert.Equal(t, 1, table.Stats.NonPositiveDropped)
	require.Len(t, table.Rows, 3)
	for _, r := range table.Rows {
		assert.False(t, r.IsCancellation())
		assert.Positive(t, r.Quantity)
		assert.NotEmpty(t, r.CustomerID)
	}
}

func TestLoad_Latin1(t *testing.T) {
	body := []byte("InvoiceNo,StockCode,Quantity,UnitPrice,InvoiceDate,CustomerID,Country\n1,A,1,1.00,2011-01-01,1,Espa\xf1a\n")
	p := filepath.Join(t.TempDir(), "latin1.csv")
	require.NoError(t, os.WriteFile(p, body, 0o644))
	table, err := Load(p, models.CleanOptions{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "España", table.Rows[0].Country)
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	rows := [][]interface{}{
		{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"},
		{"536365", "85123A", "HEART", 6, "2010-12-01 08:26:00", 2.55, 17850, "United Kingdom"},
		{"536366", "22633", "WARMER", 2, "2010-12-02 09:00:00", 1.85, "", "France"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	p := filepath.Join(t.TempDir(), "OnlineRetail.xlsx")
	require.NoError(t, f.SaveAs(p))

	table, err := Load(p, models.CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Stats.RowsRead)
	assert.Equal(t, 1, table.Stats.MissingCustomer)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "17850", table.Rows[0].CustomerID)
	assert.Equal(t, int64(6), table.Rows[0].Quantity)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2010-12-01 08:26:00", time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)},
		{"12/1/2010 8:26", time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)},
		{"2011-01-05", time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"40513.5", time.Date(2010, 12, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestParseQuantityAndPrice(t *testing.T) {
	q, err := ParseQuantity("6.0")
	require.NoError(t, err)
	assert.Equal(t, int64(6), q)
	_, err = ParseQuantity("1.5")
	assert.Error(t, err)

	_, err = ParseUnitPrice("-11062.06")
	assert.Error(t, err)
	p, err := ParseUnitPrice("0.85")
	require.NoError(t, err)
	assert.Equal(t, "0.85", p.String())
}

func TestNormalizeCustomerID(t *testing.T) {
	assert.Equal(t, "17850", NormalizeCustomerID(" 17850.0 "))
	assert.Equal(t, "", NormalizeCustomerID("NaN"))
	assert.Equal(t, "A12", NormalizeCustomerID("A12"))
}
