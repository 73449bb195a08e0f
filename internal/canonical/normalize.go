package canonical

import (
	"math"
	"strconv"
	"strings"
)

// roundTolerance absorbs cent-level rounding when deriving line totals.
const roundTolerance = 0.01

// Normalize maps a raw extraction payload onto the canonical field set.
// Unknown keys are dropped, numeric-looking strings are parsed, and values
// that cannot be parsed normalize to null rather than failing the pipeline.
// confidence carries the service-reported per-field confidence on a 0..1
// scale, keyed by canonical field name.
func Normalize(fields map[string]any, confidence map[string]float64) *Invoice {
	inv := &Invoice{
		VendorName:    normalizeString(fields, confidence, KeyVendorName),
		InvoiceNumber: normalizeString(fields, confidence, KeyInvoiceNumber),
		Date:          normalizeString(fields, confidence, KeyDate),
		TotalAmount:   normalizeMoney(fields, confidence, KeyTotalAmount),
		LineItems:     normalizeLineItems(fields, confidence),
	}
	return inv
}

func confidenceFor(confidence map[string]float64, key string) *float64 {
	if confidence == nil {
		return nil
	}
	c, ok := confidence[key]
	if !ok {
		return nil
	}
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return &c
}

func normalizeString(fields map[string]any, confidence map[string]float64, key string) StringField {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return StringField{}
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return StringField{}
	}
	if s == "" {
		return StringField{}
	}
	return StringField{Value: &s, Present: true, SourceConfidence: confidenceFor(confidence, key)}
}

func normalizeMoney(fields map[string]any, confidence map[string]float64, key string) MoneyField {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return MoneyField{}
	}
	field := MoneyField{Present: true, SourceConfidence: confidenceFor(confidence, key)}
	if v, ok := ParseAmount(raw); ok {
		field.Value = &v
	}
	return field
}

// ParseAmount parses a raw monetary value. Strings are stripped of everything
// except digits, '.' and '-' before parsing, so "$1,234.56" becomes 1234.56.
func ParseAmount(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		var b strings.Builder
		for _, r := range v {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				b.WriteRune(r)
			}
		}
		cleaned := b.String()
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func normalizeLineItems(fields map[string]any, confidence map[string]float64) LineItemsField {
	raw, ok := fields[KeyLineItems]
	if !ok || raw == nil {
		return LineItemsField{}
	}
	list, ok := raw.([]any)
	if !ok {
		return LineItemsField{}
	}

	field := LineItemsField{
		Items:            make([]LineItem, 0, len(list)),
		Present:          true,
		SourceConfidence: confidenceFor(confidence, KeyLineItems),
	}
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		field.Items = append(field.Items, normalizeLineItem(m))
	}
	return field
}

func normalizeLineItem(m map[string]any) LineItem {
	item := LineItem{}
	if desc, ok := m["description"].(string); ok {
		item.Description = strings.TrimSpace(desc)
	}
	if qty, ok := ParseAmount(m["quantity"]); ok && qty >= 0 {
		item.Quantity = qty
	}
	if price, ok := ParseAmount(m["unit_price"]); ok && price >= 0 {
		item.UnitPrice = price
	}
	if total, ok := ParseAmount(m["line_total"]); ok && total >= 0 {
		item.LineTotal = total
		return item
	}
	// No usable supplied total: derive from quantity * unit price.
	item.LineTotal = roundMoney(item.Quantity * item.UnitPrice)
	item.Derived = true
	return item
}

// roundMoney rounds to cents.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApproxEqual reports whether two amounts agree within rounding tolerance.
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) <= roundTolerance
}
