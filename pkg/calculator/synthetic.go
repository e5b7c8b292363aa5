package calculator

import (
	"math/rand"

	"retail-insights/pkg/models"
)

// Synthesize generates the demo-only ChurnProb and ConversionRate columns from
// a seeded source. These values are not derived from transactions.
func Synthesize(customers []models.CustomerFeatures, seed int64) []models.SyntheticColumns {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.SyntheticColumns, len(customers))
	for i, c := range customers {
		out[i] = models.SyntheticColumns{
			CustomerID:     c.CustomerID,
			ChurnProb:      rng.Float64(),
			ConversionRate: 2.5 + 7.0*rng.Float64(),
		}
	}
	return out
}
