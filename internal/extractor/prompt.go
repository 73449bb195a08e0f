package extractor

// BuildInvoicePrompt returns the fixed extraction prompt describing the
// canonical target schema. Every provider sends the same prompt so outputs
// stay comparable across models.
func BuildInvoicePrompt() string {
	return `You are an invoice data extraction engine. Extract the following fields from the supplied invoice image and respond with a single JSON object, no markdown, no commentary.

Target schema:
{
  "vendor_name": string or null,
  "invoice_number": string or null,
  "date": string (ISO 8601 date) or null,
  "total_amount": string or number or null,
  "line_items": [
    {
      "description": string,
      "quantity": number,
      "unit_price": number,
      "line_total": number
    }
  ],
  "confidence": { "<field>": number between 0 and 1 }
}

Rules:
- Use null for any field you cannot read; never guess a value.
- Keep monetary values exactly as printed (currency symbols are fine).
- "confidence" holds your own per-field confidence for every non-null field.
- Do not add keys outside the schema.`
}
