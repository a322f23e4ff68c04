// Package features turns answers into the scorer's fixed-order feature vector.
package features

import (
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/model"
)

// Build returns one slot per catalog question, in catalog order. Unanswered
// questions are 0; ids the catalog does not know are ignored.
func Build(cat *catalog.Catalog, answers model.AnswerSet) model.FeatureVector {
	ids := cat.IDs()
	vec := make(model.FeatureVector, len(ids))
	for i, id := range ids {
		vec[i] = answers.Get(id).Or(0)
	}
	return vec
}

// Align maps a row with its own column order onto the catalog order.
// Missing columns become 0 and extra columns are dropped. Values beyond the
// shorter of columns and row are treated as missing.
func Align(cat *catalog.Catalog, columns []string, row []float64) model.FeatureVector {
	answers := make(model.AnswerSet, len(columns))
	for i, col := range columns {
		if i >= len(row) {
			break
		}
		if _, err := cat.IndexOf(col); err != nil {
			continue
		}
		answers.Set(col, row[i])
	}
	return Build(cat, answers)
}
