package extractor

import (
	"encoding/json"
	"strings"

	"invox/internal/canonical"
	"invox/internal/port"
)

// DecodePayload turns a provider's text response into an ExtractOutput.
// The payload is schema-checked before it leaves the adapter boundary, so
// malformed model output surfaces as a typed failure rather than a
// half-populated record.
func DecodePayload(text, model string) (*port.ExtractOutput, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, NewError(KindMalformedResponse, "empty response from extraction service", nil)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, NewError(KindMalformedResponse, "response is not valid JSON", err)
	}

	if err := canonical.ValidateRaw(payload); err != nil {
		return nil, NewError(KindMalformedResponse, "response does not match target schema", err)
	}

	confidence := map[string]float64{}
	if rawConf, ok := payload["confidence"].(map[string]any); ok {
		for key, val := range rawConf {
			if f, ok := val.(float64); ok {
				confidence[key] = f
			}
		}
	}
	delete(payload, "confidence")

	return &port.ExtractOutput{
		Fields:          payload,
		FieldConfidence: confidence,
		ModelUsed:       model,
	}, nil
}

// stripCodeFence removes a markdown code fence some models wrap around JSON.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
