package port

import "context"

// ExtractInput carries the data sent to the semantic extraction service.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
}

// ExtractOutput is the raw field mapping returned by an extraction provider.
// Fields is the decoded key/value payload before canonical normalization;
// FieldConfidence carries service-reported per-field confidence on a 0..1
// scale, keyed by canonical field name.
type ExtractOutput struct {
	Fields          map[string]any
	FieldConfidence map[string]float64
	ModelUsed       string
}

// Extractor abstracts the vision-LLM extraction service.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
