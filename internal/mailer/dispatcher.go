package mailer

import (
	"context"
	"fmt"

	"github.com/wecantrust/donations-backend/pkg/config"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/mail"
	"github.com/wecantrust/donations-backend/pkg/metrics"
)

// ReceiptEmail carries everything needed to send a donation receipt.
type ReceiptEmail struct {
	DonorName     string
	DonorEmail    string
	ReceiptNumber string
	Amount        int64
	AmountWords   string
	Purpose       string
	Date          string
	FinancialYear string
	VerifyURL     string
	PDF           []byte
}

// WithRecipient returns a copy addressed to a different mailbox, used when
// resending a receipt.
func (e ReceiptEmail) WithRecipient(email string) ReceiptEmail {
	e.DonorEmail = email
	return e
}

// DonationConfirmation is the immediate thank-you sent once a payment
// verifies, before the receipt PDF exists.
type DonationConfirmation struct {
	DonorName  string
	DonorEmail string
	Amount     int64
	PaymentID  string
}

// ContactAcknowledgement thanks a visitor for an inbound contact message.
type ContactAcknowledgement struct {
	Name    string
	Email   string
	Subject string
}

// Dispatcher composes and sends the backend's outbound email.
type Dispatcher interface {
	SendReceiptEmail(ctx context.Context, email ReceiptEmail) (string, error)
	SendDonationConfirmation(ctx context.Context, confirmation DonationConfirmation) (string, error)
	SendContactAcknowledgement(ctx context.Context, ack ContactAcknowledgement) (string, error)
}

// DispatcherParams wires dispatcher dependencies.
type DispatcherParams struct {
	Sender  mail.Sender
	Org     config.OrgConfig
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

type dispatcher struct {
	sender  mail.Sender
	org     config.OrgConfig
	logg    *logger.Logger
	metrics *metrics.Metrics
}

// NewDispatcher validates dependencies and returns a mail dispatcher.
func NewDispatcher(params DispatcherParams) (Dispatcher, error) {
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &dispatcher{
		sender:  params.Sender,
		org:     params.Org,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (d *dispatcher) SendReceiptEmail(ctx context.Context, email ReceiptEmail) (string, error) {
	if email.DonorEmail == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}
	if email.ReceiptNumber == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "receipt number required")
	}

	html, plain, err := renderReceiptEmail(d.org, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt email")
	}

	messageID, err := d.sender.Send(ctx, mail.Message{
		ToName:         email.DonorName,
		ToEmail:        email.DonorEmail,
		Subject:        fmt.Sprintf("Donation Receipt %s - %s", email.ReceiptNumber, d.org.Name),
		PlainBody:      plain,
		HTMLBody:       html,
		AttachmentName: fmt.Sprintf("receipt-%s.pdf", email.ReceiptNumber),
		AttachmentPDF:  email.PDF,
	})
	if err != nil {
		if d.metrics != nil {
			d.metrics.EmailsFailed.Inc()
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send receipt email")
	}

	if d.metrics != nil {
		d.metrics.EmailsSent.Inc()
	}
	ctx = d.logg.WithReceiptNumber(ctx, email.ReceiptNumber)
	d.logg.Info(ctx, "receipt email sent")
	return messageID, nil
}

func (d *dispatcher) SendDonationConfirmation(ctx context.Context, confirmation DonationConfirmation) (string, error) {
	if confirmation.DonorEmail == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	html, plain, err := renderDonationConfirmation(d.org, confirmation)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render donation confirmation")
	}

	messageID, err := d.sender.Send(ctx, mail.Message{
		ToName:    confirmation.DonorName,
		ToEmail:   confirmation.DonorEmail,
		Subject:   fmt.Sprintf("Thank you for your donation - %s", d.org.Name),
		PlainBody: plain,
		HTMLBody:  html,
	})
	if err != nil {
		if d.metrics != nil {
			d.metrics.EmailsFailed.Inc()
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send donation confirmation")
	}
	if d.metrics != nil {
		d.metrics.EmailsSent.Inc()
	}
	return messageID, nil
}

func (d *dispatcher) SendContactAcknowledgement(ctx context.Context, ack ContactAcknowledgement) (string, error) {
	if ack.Email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	html, plain, err := renderContactAcknowledgement(d.org, ack)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render contact acknowledgement")
	}

	messageID, err := d.sender.Send(ctx, mail.Message{
		ToName:    ack.Name,
		ToEmail:   ack.Email,
		Subject:   fmt.Sprintf("We received your message - %s", d.org.Name),
		PlainBody: plain,
		HTMLBody:  html,
	})
	if err != nil {
		if d.metrics != nil {
			d.metrics.EmailsFailed.Inc()
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send contact acknowledgement")
	}
	if d.metrics != nil {
		d.metrics.EmailsSent.Inc()
	}
	return messageID, nil
}
