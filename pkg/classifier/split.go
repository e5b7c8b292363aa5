package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"retail-insights/pkg/models"
)

// StratifiedSplit partitions row indices into train and test so that each
// class keeps its share in both. The assignment depends only on labels,
// testFraction and seed. Every class needs at least two rows.
func StratifiedSplit(labels []int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction %.3f outside (0,1)", testFraction)
	}
	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	if len(byClass) < 2 {
		return nil, nil, &models.DegenerateInputError{
			Metric: "NextMonthPurchase", Customers: len(labels), Distinct: len(byClass),
			Reason: "need both classes to train",
		}
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		if len(idx) < 2 {
			return nil, nil, &models.DegenerateInputError{
				Metric: "NextMonthPurchase", Customers: len(labels), Distinct: len(byClass),
				Reason: fmt.Sprintf("class %d has %d row(s), need at least 2", c, len(idx)),
			}
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest > len(idx)-1 {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
