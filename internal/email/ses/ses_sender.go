package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESNotifier creates a new SES-backed ReminderNotifier.
func NewSESNotifier(region, fromAddress, fromName, frontendURL string) (port.ReminderNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesNotifier{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesNotifier) SendLinkingReminder(ctx context.Context, to port.UserRef, invoices []domain.InvoiceRecord) error {
	pendingURL := fmt.Sprintf("%s/invoices/linking", s.frontendURL)

	subject := fmt.Sprintf("%d correction invoice(s) awaiting linking", len(invoices))
	htmlBody := buildReminderHTML(to.Name, pendingURL, invoices)
	textBody := buildReminderText(to.Name, pendingURL, invoices)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{to.Email},
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

func buildReminderText(name, pendingURL string, invoices []domain.InvoiceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThe following correction documents still need to be linked to their original invoices:\n\n", name)
	for _, inv := range invoices {
		fmt.Fprintf(&b, "  - %s from %s, %s %s (issued %s)\n",
			inv.InvoiceNumber, inv.SellerName,
			inv.GrossAmount.StringFixed(2), inv.Currency,
			inv.IssueDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nReview them here:\n%s\n\nFarmbooks", pendingURL)
	return b.String()
}

func buildReminderHTML(name, pendingURL string, invoices []domain.InvoiceRecord) string {
	var rows strings.Builder
	for _, inv := range invoices {
		fmt.Fprintf(&rows, `<tr>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%s %s</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
    </tr>`,
			inv.InvoiceNumber, inv.SellerName,
			inv.GrossAmount.StringFixed(2), inv.Currency,
			inv.IssueDate.Format("2006-01-02"))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Correction invoices awaiting linking</h2>
  <p>Hi %s,</p>
  <p>The following correction documents still need to be linked to their original invoices:</p>
  <table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
    <tr>
      <th style="padding: 8px; text-align: left; border-bottom: 2px solid #333;">Number</th>
      <th style="padding: 8px; text-align: left; border-bottom: 2px solid #333;">Seller</th>
      <th style="padding: 8px; text-align: right; border-bottom: 2px solid #333;">Gross</th>
      <th style="padding: 8px; text-align: left; border-bottom: 2px solid #333;">Issued</th>
    </tr>
    %s
  </table>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Review pending links</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Farmbooks - Farm Bookkeeping</p>
</body>
</html>`, name, rows.String(), pendingURL)
}
