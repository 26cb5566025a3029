package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/wecantrust/donations-backend/pkg/config"
)

var receiptEmailTmpl = template.Must(template.New("receipt_email").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #2c5f2d; color: #ffffff; padding: 24px; text-align: center;">
    <h1 style="margin: 0; font-size: 22px;">{{.OrgName}}</h1>
    <p style="margin: 8px 0 0;">Thank you for your generous donation</p>
  </div>
  <div style="padding: 24px; color: #333333;">
    <p>Dear {{.DonorName}},</p>
    <p>We have received your donation. Your official receipt is attached to this email as a PDF.</p>
    <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
      <tr>
        <td style="padding: 8px; border: 1px solid #dddddd;">Receipt Number</td>
        <td style="padding: 8px; border: 1px solid #dddddd;"><strong>{{.ReceiptNumber}}</strong></td>
      </tr>
      <tr>
        <td style="padding: 8px; border: 1px solid #dddddd;">Amount</td>
        <td style="padding: 8px; border: 1px solid #dddddd;">&#8377;{{.Amount}} ({{.AmountWords}})</td>
      </tr>
      {{if .Purpose}}
      <tr>
        <td style="padding: 8px; border: 1px solid #dddddd;">Purpose</td>
        <td style="padding: 8px; border: 1px solid #dddddd;">{{.Purpose}}</td>
      </tr>
      {{end}}
      <tr>
        <td style="padding: 8px; border: 1px solid #dddddd;">Date</td>
        <td style="padding: 8px; border: 1px solid #dddddd;">{{.Date}}</td>
      </tr>
      <tr>
        <td style="padding: 8px; border: 1px solid #dddddd;">Financial Year</td>
        <td style="padding: 8px; border: 1px solid #dddddd;">{{.FinancialYear}}</td>
      </tr>
    </table>
    {{if .Section80G}}
    <p style="font-size: 13px; color: #555555;">
      Donations to {{.OrgName}} are eligible for deduction under Section 80G of the
      Income Tax Act, 1961. Registration: {{.Section80G}}.
    </p>
    {{end}}
    {{if .VerifyURL}}
    <p style="font-size: 13px;">You can verify this receipt at any time:
      <a href="{{.VerifyURL}}">{{.VerifyURL}}</a></p>
    {{end}}
    <p>With gratitude,<br/>{{.OrgName}}</p>
  </div>
  <div style="background-color: #f4f4f4; padding: 16px; text-align: center; font-size: 12px; color: #777777;">
    {{if .Address}}<p style="margin: 0;">{{.Address}}</p>{{end}}
    {{if .Website}}<p style="margin: 4px 0 0;">{{.Website}}</p>{{end}}
  </div>
</div>
`))

var confirmationTmpl = template.Must(template.New("donation_confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #2c5f2d; color: #ffffff; padding: 24px; text-align: center;">
    <h1 style="margin: 0; font-size: 22px;">{{.OrgName}}</h1>
    <p style="margin: 8px 0 0;">Donation received</p>
  </div>
  <div style="padding: 24px; color: #333333;">
    <p>Dear {{.DonorName}},</p>
    <p>Your donation of <strong>&#8377;{{.Amount}}</strong> has been received and your
    payment is confirmed (payment reference <strong>{{.PaymentID}}</strong>).</p>
    <p>Your official 80G receipt is being prepared and will arrive in a separate
    email shortly.</p>
    <p>With gratitude,<br/>{{.OrgName}}</p>
  </div>
</div>
`))

var contactAckTmpl = template.Must(template.New("contact_ack").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #2c5f2d; color: #ffffff; padding: 24px; text-align: center;">
    <h1 style="margin: 0; font-size: 22px;">{{.OrgName}}</h1>
  </div>
  <div style="padding: 24px; color: #333333;">
    <p>Dear {{.Name}},</p>
    <p>Thank you for reaching out about <strong>{{.Subject}}</strong>. We have received
    your message and our team will get back to you shortly.</p>
    <p>Warm regards,<br/>{{.OrgName}}</p>
  </div>
</div>
`))

type receiptEmailData struct {
	OrgName       string
	Address       string
	Website       string
	Section80G    string
	DonorName     string
	ReceiptNumber string
	Amount        int64
	AmountWords   string
	Purpose       string
	Date          string
	FinancialYear string
	VerifyURL     string
}

func renderReceiptEmail(org config.OrgConfig, email ReceiptEmail) (html, plain string, err error) {
	data := receiptEmailData{
		OrgName:       org.Name,
		Address:       org.Address,
		Website:       org.Website,
		Section80G:    org.Section80G,
		DonorName:     email.DonorName,
		ReceiptNumber: email.ReceiptNumber,
		Amount:        email.Amount,
		AmountWords:   email.AmountWords,
		Purpose:       email.Purpose,
		Date:          email.Date,
		FinancialYear: email.FinancialYear,
		VerifyURL:     email.VerifyURL,
	}

	var sb strings.Builder
	if err := receiptEmailTmpl.Execute(&sb, data); err != nil {
		return "", "", err
	}

	plain = fmt.Sprintf(
		"Dear %s,\n\nThank you for your donation to %s.\n\nReceipt Number: %s\nAmount: Rs. %d (%s)\nPurpose: %s\nDate: %s\nFinancial Year: %s\n\nYour official receipt is attached as a PDF.\n\nWith gratitude,\n%s\n",
		email.DonorName, org.Name, email.ReceiptNumber, email.Amount,
		email.AmountWords, email.Purpose, email.Date, email.FinancialYear, org.Name,
	)
	return sb.String(), plain, nil
}

func renderDonationConfirmation(org config.OrgConfig, confirmation DonationConfirmation) (html, plain string, err error) {
	data := struct {
		OrgName   string
		DonorName string
		Amount    int64
		PaymentID string
	}{OrgName: org.Name, DonorName: confirmation.DonorName, Amount: confirmation.Amount, PaymentID: confirmation.PaymentID}

	var sb strings.Builder
	if err := confirmationTmpl.Execute(&sb, data); err != nil {
		return "", "", err
	}

	plain = fmt.Sprintf(
		"Dear %s,\n\nYour donation of Rs. %d to %s has been received and your payment is confirmed (payment reference %s).\n\nYour official 80G receipt will arrive in a separate email shortly.\n\nWith gratitude,\n%s\n",
		confirmation.DonorName, confirmation.Amount, org.Name, confirmation.PaymentID, org.Name,
	)
	return sb.String(), plain, nil
}

func renderContactAcknowledgement(org config.OrgConfig, ack ContactAcknowledgement) (html, plain string, err error) {
	data := struct {
		OrgName string
		Name    string
		Subject string
	}{OrgName: org.Name, Name: ack.Name, Subject: ack.Subject}

	var sb strings.Builder
	if err := contactAckTmpl.Execute(&sb, data); err != nil {
		return "", "", err
	}

	plain = fmt.Sprintf(
		"Dear %s,\n\nThank you for reaching out about %s. We have received your message and will get back to you shortly.\n\nWarm regards,\n%s\n",
		ack.Name, ack.Subject, org.Name,
	)
	return sb.String(), plain, nil
}
