package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ParsesCurrencyStrings(t *testing.T) {
	inv := Normalize(map[string]any{
		"vendor_name":  "Acme Corp",
		"total_amount": "$1,234.56",
	}, nil)

	assert.True(t, inv.VendorName.Present)
	assert.Equal(t, "Acme Corp", *inv.VendorName.Value)
	assert.True(t, inv.TotalAmount.Present)
	assert.InDelta(t, 1234.56, *inv.TotalAmount.Value, 0.001)
}

func TestNormalize_NullAndMissingFieldsAreAbsent(t *testing.T) {
	inv := Normalize(map[string]any{
		"vendor_name":    "Acme Corp",
		"invoice_number": nil,
	}, nil)

	assert.False(t, inv.InvoiceNumber.Present)
	assert.Nil(t, inv.InvoiceNumber.Value)
	assert.False(t, inv.Date.Present)
	assert.False(t, inv.TotalAmount.Present)
	assert.False(t, inv.LineItems.Present)
}

func TestNormalize_UnparsableMoneyIsPresentWithNilValue(t *testing.T) {
	inv := Normalize(map[string]any{
		"total_amount": "not a number",
	}, nil)

	assert.True(t, inv.TotalAmount.Present)
	assert.Nil(t, inv.TotalAmount.Value)
}

func TestNormalize_UnknownKeysDropped(t *testing.T) {
	inv := Normalize(map[string]any{
		"vendor_name": "Acme Corp",
		"po_number":   "PO-991",
		"currency":    "USD",
	}, nil)

	// Only canonical fields survive; the extra keys have nowhere to land.
	assert.True(t, inv.VendorName.Present)
	assert.False(t, inv.InvoiceNumber.Present)
}

func TestNormalize_LineItemTotalDerived(t *testing.T) {
	inv := Normalize(map[string]any{
		"line_items": []any{
			map[string]any{"description": "Widget", "quantity": 3.0, "unit_price": 10.0},
		},
	}, nil)

	assert.True(t, inv.LineItems.Present)
	assert.Len(t, inv.LineItems.Items, 1)
	item := inv.LineItems.Items[0]
	assert.InDelta(t, 30.0, item.LineTotal, 0.01)
	assert.True(t, item.Derived)
	assert.True(t, inv.LineItems.AnyDerived())
}

func TestNormalize_LineItemSuppliedTotalKept(t *testing.T) {
	inv := Normalize(map[string]any{
		"line_items": []any{
			map[string]any{"description": "Widget", "quantity": 2.0, "unit_price": 5.0, "line_total": 10.0},
		},
	}, nil)

	item := inv.LineItems.Items[0]
	assert.InDelta(t, 10.0, item.LineTotal, 0.001)
	assert.False(t, item.Derived)
	assert.False(t, inv.LineItems.AnyDerived())
}

func TestNormalize_ServiceConfidenceClamped(t *testing.T) {
	inv := Normalize(map[string]any{
		"vendor_name":    "Acme Corp",
		"invoice_number": "INV-1",
	}, map[string]float64{
		"vendor_name":    1.7,
		"invoice_number": -0.2,
	})

	assert.InDelta(t, 1.0, *inv.VendorName.SourceConfidence, 0.001)
	assert.InDelta(t, 0.0, *inv.InvoiceNumber.SourceConfidence, 0.001)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
		ok   bool
	}{
		{"plain number", 42.5, 42.5, true},
		{"currency string", "$1,234.56", 1234.56, true},
		{"euro style symbol", "EUR 99.00", 99.0, true},
		{"negative", "-12.50", -12.50, true},
		{"garbage", "n/a", 0, false},
		{"empty", "", 0, false},
		{"wrong type", []any{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestApproxEqual(t *testing.T) {
	assert.True(t, ApproxEqual(10.00, 10.009))
	assert.False(t, ApproxEqual(10.00, 10.02))
}
