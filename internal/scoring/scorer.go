// Package scoring computes per-field and overall extraction confidence.
// Score is a pure function of the canonical invoice: identical input always
// yields identical scores.
package scoring

import (
	"invox/internal/canonical"
	"invox/internal/domain"
)

// fieldWeights are the fixed aggregation weights per canonical key. Vendor,
// total and date carry more weight than line-item detail.
var fieldWeights = map[string]float64{
	canonical.KeyVendorName:    0.25,
	canonical.KeyInvoiceNumber: 0.15,
	canonical.KeyDate:          0.15,
	canonical.KeyTotalAmount:   0.30,
	canonical.KeyLineItems:     0.15,
}

// Heuristic fallback scores used when the service reported no confidence for
// a field.
const (
	scoreNormalized = 100.0
	scoreDerived    = 50.0
	scoreFailed     = 0.0
)

// Score computes confidence for a normalized invoice. Fields the extraction
// omitted (or returned null for) are excluded entirely: the remaining weights
// are renormalized so schemas lacking optional fields are not penalized.
func Score(inv *canonical.Invoice) domain.ConfidenceScores {
	perField := make(map[string]float64)

	if inv.VendorName.Present {
		perField[canonical.KeyVendorName] = stringScore(inv.VendorName)
	}
	if inv.InvoiceNumber.Present {
		perField[canonical.KeyInvoiceNumber] = stringScore(inv.InvoiceNumber)
	}
	if inv.Date.Present {
		perField[canonical.KeyDate] = stringScore(inv.Date)
	}
	if inv.TotalAmount.Present {
		perField[canonical.KeyTotalAmount] = moneyScore(inv.TotalAmount)
	}
	if inv.LineItems.Present {
		perField[canonical.KeyLineItems] = lineItemsScore(inv.LineItems)
	}

	return domain.ConfidenceScores{
		Overall:  weightedMean(perField),
		PerField: perField,
	}
}

func stringScore(f canonical.StringField) float64 {
	if f.SourceConfidence != nil {
		return clamp(*f.SourceConfidence * 100)
	}
	if f.Value == nil {
		return scoreFailed
	}
	return scoreNormalized
}

func moneyScore(f canonical.MoneyField) float64 {
	if f.SourceConfidence != nil {
		return clamp(*f.SourceConfidence * 100)
	}
	if f.Value == nil {
		return scoreFailed
	}
	return scoreNormalized
}

func lineItemsScore(f canonical.LineItemsField) float64 {
	if f.SourceConfidence != nil {
		return clamp(*f.SourceConfidence * 100)
	}
	if f.AnyDerived() {
		return scoreDerived
	}
	return scoreNormalized
}

// weightedMean aggregates present per-field scores. Iteration follows the
// fixed canonical key order so the result is invariant to map ordering.
func weightedMean(perField map[string]float64) float64 {
	var weightSum, total float64
	for _, key := range canonical.Keys {
		score, ok := perField[key]
		if !ok {
			continue
		}
		w := fieldWeights[key]
		weightSum += w
		total += w * score
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
