package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"invox/internal/config"
	"invox/internal/extractor"
	"invox/internal/port"
)

// Extractor implements port.Extractor using the Google Gemini SDK.
type Extractor struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
}

// NewExtractor creates a Gemini-backed extractor from a provider config.
func NewExtractor(cfg *config.ExtractorProviderConfig) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	name := cfg.DefaultModel
	if name == "" {
		name = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(name)
	model.ResponseMIMEType = "application/json"

	return &Extractor{client: client, model: model, name: name, timeout: timeout}, nil
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// genai.ImageData expects just the format suffix, not the full MIME type.
	format := strings.TrimPrefix(input.ContentType, "image/")
	if input.ContentType == "application/pdf" {
		format = "pdf"
	}

	parts := []genai.Part{
		genai.ImageData(format, input.FileBytes),
		genai.Text(extractor.BuildInvoicePrompt()),
	}

	resp, err := e.model.GenerateContent(ctx, parts...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, extractor.NewError(extractor.KindTimeout, "gemini call timed out", err)
		}
		return nil, extractor.NewError(extractor.KindServiceError, "generating content", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, extractor.NewError(extractor.KindMalformedResponse, "no response from gemini", nil)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return extractor.DecodePayload(text.String(), e.name)
}

// Close closes the underlying Gemini client.
func (e *Extractor) Close() error {
	return e.client.Close()
}
