// Package harvest estimates when a crop planted today can be harvested.
package harvest

import (
	"strings"
	"time"
)

// DefaultDays applies to products the table does not name.
const DefaultDays = 60

type rule struct {
	keyword string
	days    int
}

// Matched in order against the lower-cased product name, so
// "cherry tomato" resolves as tomato.
var table = []rule{
	{"tomato", 75},
	{"cherry", 65},
	{"cucumber", 55},
	{"eggplant", 85},
	{"corn", 90},
	{"carrot", 80},
}

// GrowingDays returns the growing period for productName.
func GrowingDays(productName string) int {
	name := strings.ToLower(productName)
	for _, r := range table {
		if strings.Contains(name, r.keyword) {
			return r.days
		}
	}
	return DefaultDays
}

// Estimate returns the harvest date of a batch planted at plantedAt,
// truncated to the start of that day.
func Estimate(productName string, plantedAt time.Time) time.Time {
	y, m, d := plantedAt.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, plantedAt.Location())
	return start.AddDate(0, 0, GrowingDays(productName))
}
