package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wecantrust/donations-backend/pkg/config"
)

// Message is a single outbound email with an optional PDF attachment.
type Message struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainBody string
	HTMLBody  string

	AttachmentName string
	AttachmentPDF  []byte
}

// Sender delivers outbound email. Implementations return the provider
// message id when available.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SendgridSender delivers mail through the Sendgrid v3 API.
type SendgridSender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendgridSender(cfg config.MailConfig) (*SendgridSender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.FromEmail == "" {
		return nil, errors.New("mail from address is required")
	}
	return &SendgridSender{
		client:    sendgrid.NewSendClient(cfg.SendgridAPIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.ToEmail == "" {
		return "", errors.New("recipient email is required")
	}

	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, msg.HTMLBody)

	if len(msg.AttachmentPDF) > 0 {
		attachment := sgmail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(msg.AttachmentPDF))
		attachment.SetType("application/pdf")
		attachment.SetFilename(msg.AttachmentName)
		attachment.SetDisposition("attachment")
		email.AddAttachment(attachment)
	}

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}

	messageID := ""
	if ids, ok := resp.Headers["X-Message-Id"]; ok && len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}
