package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"revivatech-backend/internal/logger"
)

// SendGridSender delivers email notifications through the SendGrid API.
type SendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, recipient, title, message string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", recipient)

	htmlContent := fmt.Sprintf("<html><body><h2>%s</h2><p>%s</p></body></html>", title, message)
	email := mail.NewSingleEmail(from, title, to, message, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)

	logger.ExternalServiceCall("SendGrid", "Send", "to", recipient)
	response, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("SendGrid", "Send", nil, "status", response.StatusCode)

	return nil
}
