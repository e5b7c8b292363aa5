package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"retail-insights/pkg/classifier"
	"retail-insights/pkg/models"
	"retail-insights/pkg/rfm"
)

func capRows(n, limit int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}

func renderFeatures(w io.Writer, ft *models.FeatureTable, limit int) {
	fmt.Fprintf(w, "snapshot %s ; %d customers ; mean purchase interval %.1f days\n",
		ft.Snapshot.Format("2006-01-02"), len(ft.Customers), ft.MeanPurchaseInterval)

	header := []string{"Customer", "Country", "Spend", "Orders", "AOV", "Basket", "Tenure", "Interval", "Returns", "Recency"}
	synthetic := len(ft.Synthetic) == len(ft.Customers) && len(ft.Synthetic) > 0
	if synthetic {
		header = append(header, "ChurnProb*", "Conv%*")
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for i := 0; i < capRows(len(ft.Customers), limit); i++ {
		c := ft.Customers[i]
		interval := strconv.FormatFloat(c.PurchaseInterval, 'f', 1, 64)
		if c.IntervalImputed {
			interval += "~"
		}
		row := []string{
			c.CustomerID,
			c.Country,
			c.TotalSpend.StringFixed(2),
			strconv.Itoa(c.NumOrders),
			c.AOV.StringFixed(2),
			strconv.FormatFloat(c.AvgBasketSize, 'f', 1, 64),
			strconv.Itoa(c.CustomerTenure),
			interval,
			strconv.FormatFloat(c.ReturnRate*100, 'f', 1, 64) + "%",
			strconv.Itoa(c.Recency),
		}
		if synthetic {
			s := ft.Synthetic[i]
			row = append(row, strconv.FormatFloat(s.ChurnProb, 'f', 2, 64), strconv.FormatFloat(s.ConversionRate, 'f', 2, 64))
		}
		table.Append(row)
	}
	table.Render()
	if synthetic {
		fmt.Fprintln(w, "* synthetic demo columns, not derived from transactions")
	}
}

func renderRFM(w io.Writer, res *rfm.Result, limit int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Customer", "R", "F", "M", "Total", "Segment"})
	for i := 0; i < capRows(len(res.Scores), limit); i++ {
		s := res.Scores[i]
		table.Append([]string{
			s.CustomerID,
			strconv.Itoa(s.RScore),
			strconv.Itoa(s.FScore),
			strconv.Itoa(s.MScore),
			strconv.Itoa(s.Total),
			s.Segment,
		})
	}
	table.Render()

	counts := rfm.SegmentCounts(res.Scores)
	seg := tablewriter.NewWriter(w)
	seg.SetHeader([]string{"Segment", "Customers"})
	for _, name := range []string{rfm.SegmentChampions, rfm.SegmentActive, rfm.SegmentAtRisk, rfm.SegmentLost} {
		seg.Append([]string{name, strconv.Itoa(counts[name])})
	}
	seg.Render()

	for _, d := range res.Degenerate {
		fmt.Fprintf(w, "warning: %v\n", d)
	}
}

func renderBuyers(w io.Writer, buyers models.CustomerSet, cutoff time.Time, windowDays int) {
	ids := make([]string, 0, len(buyers))
	for id := range buyers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(w, "%d customers purchased in (%s, +%dd]\n", len(ids), cutoff.Format("2006-01-02"), windowDays)
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

func renderMetrics(w io.Writer, m *models.Metrics) {
	fmt.Fprintf(w, "run %s ; train %d ; test %d ; newton iterations %d\n", m.RunID, m.TrainSize, m.TestSize, m.Iterations)

	report := tablewriter.NewWriter(w)
	report.SetHeader([]string{"Class", "Precision", "Recall", "F1", "Support"})
	for _, c := range m.Classes {
		report.Append([]string{
			strconv.Itoa(c.Class),
			strconv.FormatFloat(c.Precision, 'f', 2, 64),
			strconv.FormatFloat(c.Recall, 'f', 2, 64),
			strconv.FormatFloat(c.F1, 'f', 2, 64),
			strconv.Itoa(c.Support),
		})
	}
	report.SetFooter([]string{"accuracy", "", "", strconv.FormatFloat(m.Accuracy, 'f', 2, 64), strconv.Itoa(m.TestSize)})
	report.Render()

	confusion := tablewriter.NewWriter(w)
	confusion.SetHeader([]string{"Actual \\ Predicted", "0", "1"})
	for i, row := range m.Confusion {
		confusion.Append([]string{strconv.Itoa(i), strconv.Itoa(row[0]), strconv.Itoa(row[1])})
	}
	confusion.Render()

	if m.AUCDefined {
		fmt.Fprintf(w, "ROC-AUC %.4f\n", m.ROCAUC)
	} else {
		fmt.Fprintln(w, "ROC-AUC undefined: test partition holds one class")
	}

	coef := tablewriter.NewWriter(w)
	coef.SetHeader([]string{"Feature", "Coefficient"})
	for _, name := range classifier.FeatureNames {
		coef.Append([]string{name, strconv.FormatFloat(m.Coef[name], 'f', 4, 64)})
	}
	coef.Render()
}
