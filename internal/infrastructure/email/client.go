// Package email provides email client functionality
package email

import (
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"
)

type Client struct {
	resend    *resend.Client
	fromEmail string
	fromName  string
}

// NewClient builds a resend-backed email client from the environment.
// Returns an error when RESEND_API_KEY is unset; callers treat email as
// optional and degrade to logging.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@yourdomain.com"
	}

	fromName := os.Getenv("EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Nexus Gateway"
	}

	return &Client{
		resend:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendCompletionNotification emails a creator that a visitor finished
// one of their gateways.
func (c *Client) SendCompletionNotification(toEmail, gatewayTitle, sessionID string) error {
	subject := fmt.Sprintf("Gateway completed: %s", gatewayTitle)

	html := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 560px;">
			<h2>A visitor completed your gateway</h2>
			<p><strong>%s</strong> was completed by session <code>%s</code>.</p>
			<p>Open your dashboard for the full breakdown.</p>
		</div>`, gatewayTitle, sessionID)

	request := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    html,
	}

	if _, err := c.resend.Emails.Send(request); err != nil {
		return fmt.Errorf("failed to send completion notification: %w", err)
	}
	return nil
}
