package classifier

import (
	"sort"

	"retail-insights/pkg/models"
)

// Evaluate computes the classification report, confusion matrix and ROC-AUC.
// Predictions use proba >= Threshold. Ratios with a zero denominator are 0.
func Evaluate(yTrue []int, proba []float64) models.Metrics {
	var m models.Metrics
	for i, y := range yTrue {
		pred := 0
		if proba[i] >= Threshold {
			pred = 1
		}
		m.Confusion[y][pred]++
	}
	total, correct := 0, 0
	for c := 0; c < 2; c++ {
		tp := m.Confusion[c][c]
		support := m.Confusion[c][0] + m.Confusion[c][1]
		predicted := m.Confusion[0][c] + m.Confusion[1][c]
		r := models.ClassReport{Class: c, Support: support}
		r.Precision = ratio(tp, predicted)
		r.Recall = ratio(tp, support)
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		m.Classes[c] = r
		total += support
		correct += tp
	}
	m.Accuracy = ratio(correct, total)
	m.ROCAUC, m.AUCDefined = rocAUC(yTrue, proba)
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// rocAUC is the Mann-Whitney statistic with average ranks for ties.
// It is undefined when only one class is present.
func rocAUC(yTrue []int, score []float64) (float64, bool) {
	n := len(yTrue)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return score[idx[a]] < score[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && score[idx[j+1]] == score[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	pos, neg := 0, 0
	rankSum := 0.0
	for i, y := range yTrue {
		if y == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, false
	}
	return (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg), true
}
