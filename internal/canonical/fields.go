package canonical

// Canonical field keys form a closed set. Anything else coming back from the
// extraction service is dropped at the adapter boundary.
const (
	KeyVendorName    = "vendor_name"
	KeyInvoiceNumber = "invoice_number"
	KeyTotalAmount   = "total_amount"
	KeyDate          = "date"
	KeyLineItems     = "line_items"
)

// Keys lists the canonical field keys in a fixed order.
var Keys = []string{KeyVendorName, KeyInvoiceNumber, KeyTotalAmount, KeyDate, KeyLineItems}

// StringField is a canonical text-valued field. Value is nil when the service
// returned null or omitted the key; Present is false in that case and the
// field is excluded from overall confidence.
type StringField struct {
	Value            *string  `json:"value"`
	Present          bool     `json:"present"`
	SourceConfidence *float64 `json:"source_confidence,omitempty"`
}

// MoneyField is a canonical monetary field. A raw value that was present but
// could not be parsed normalizes to a nil Value with Present=true, which
// scores zero rather than being excluded.
type MoneyField struct {
	Value            *float64 `json:"value"`
	Present          bool     `json:"present"`
	SourceConfidence *float64 `json:"source_confidence,omitempty"`
}

// LineItem is one normalized invoice line.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	// Derived is set when LineTotal was computed as Quantity*UnitPrice
	// because the extraction did not supply one.
	Derived bool `json:"derived,omitempty"`
}

// LineItemsField is the canonical line-item list. An empty list is still
// Present and scores as a successfully normalized field.
type LineItemsField struct {
	Items            []LineItem `json:"items"`
	Present          bool       `json:"present"`
	SourceConfidence *float64   `json:"source_confidence,omitempty"`
}

// AnyDerived reports whether any line total was substituted with a derived value.
func (f LineItemsField) AnyDerived() bool {
	for _, item := range f.Items {
		if item.Derived {
			return true
		}
	}
	return false
}

// Invoice is the canonical extraction result: the full closed field set.
type Invoice struct {
	VendorName    StringField    `json:"vendor_name"`
	InvoiceNumber StringField    `json:"invoice_number"`
	Date          StringField    `json:"date"`
	TotalAmount   MoneyField     `json:"total_amount"`
	LineItems     LineItemsField `json:"line_items"`
}
