package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"invox/internal/domain"
	"invox/internal/port"
)

type sesNotifier struct {
	client          *sesv2.Client
	fromAddress     string
	fromName        string
	reviewerAddress string
	frontendURL     string
}

// NewSESNotifier creates a new SES-backed ReviewNotifier.
func NewSESNotifier(region, fromAddress, fromName, reviewerAddress, frontendURL string) (port.ReviewNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesNotifier{
		client:          client,
		fromAddress:     fromAddress,
		fromName:        fromName,
		reviewerAddress: reviewerAddress,
		frontendURL:     frontendURL,
	}, nil
}

func (s *sesNotifier) NotifyReviewNeeded(ctx context.Context, rec *domain.InvoiceRecord) error {
	reviewURL := fmt.Sprintf("%s/review-queue/%s", s.frontendURL, rec.ID)

	subject := fmt.Sprintf("Invoice %s needs review", rec.OriginalFilename)
	htmlBody := buildReviewHTML(rec, reviewURL)
	textBody := fmt.Sprintf(
		"Invoice %s did not meet the auto-approval threshold and is waiting in the review queue.\n\nReview it here:\n%s\n\nInvox",
		rec.OriginalFilename, reviewURL)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.reviewerAddress},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildReviewHTML(rec *domain.InvoiceRecord, reviewURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Invoice needs review</h2>
  <p><strong>%s</strong> did not meet the auto-approval threshold and is waiting in the review queue.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Open Review Queue</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Invox - Invoice Extraction Pipeline</p>
</body>
</html>`, rec.OriginalFilename, reviewURL, reviewURL)
}
