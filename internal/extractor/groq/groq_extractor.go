package groq

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"invox/internal/config"
	"invox/internal/extractor"
	"invox/internal/port"
)

const apiURL = "https://api.groq.com/openai/v1/chat/completions"

// Extractor implements port.Extractor using Groq's OpenAI-compatible
// chat-completions API with vision input.
type Extractor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewExtractor creates a Groq-backed extractor from a provider config.
func NewExtractor(cfg *config.ExtractorProviderConfig) *Extractor {
	return newExtractor(cfg, apiURL)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ExtractorProviderConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ExtractorProviderConfig, endpoint string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "llama-3.2-90b-vision-preview"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s",
		input.ContentType, base64.StdEncoding.EncodeToString(input.FileBytes))

	reqBody := map[string]any{
		"model": e.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": extractor.BuildInvoicePrompt()},
					{"type": "image_url", "image_url": map[string]any{"url": dataURI}},
				},
			},
		},
		"response_format": map[string]any{"type": "json_object"},
		"temperature":     0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, extractor.NewError(extractor.KindTimeout, "extraction service call timed out", err)
		}
		return nil, extractor.NewError(extractor.KindServiceError, "calling extraction service", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, extractor.NewError(extractor.KindServiceError, "reading response", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("groq API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := extractor.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, extractor.NewRateLimitError("groq", baseErr, retryAfter)
		}
		return nil, extractor.NewError(extractor.KindServiceError, "extraction service error response", baseErr)
	}

	return parseResponse(respBody, e.model)
}

// apiResponse models the OpenAI-compatible chat completion response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, model string) (*port.ExtractOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, extractor.NewError(extractor.KindMalformedResponse, "unmarshaling response envelope", err)
	}
	if len(resp.Choices) == 0 {
		return nil, extractor.NewError(extractor.KindMalformedResponse, "empty choices in response", nil)
	}
	return extractor.DecodePayload(resp.Choices[0].Message.Content, model)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
