package receipts

import (
	"html/template"
	"strings"
)

// receiptDocument is the data bound into the printable receipt.
type receiptDocument struct {
	OrgName            string
	RegistrationNumber string
	PANNumber          string
	Address            string
	Phone              string
	Email              string
	Website            string
	Section80G         string

	ReceiptNumber string
	Date          string
	FinancialYear string

	DonorName    string
	DonorEmail   string
	DonorPhone   string
	DonorAddress string
	DonorPAN     string

	Amount      int64
	AmountWords string
	Purpose     string
	PaymentID   string

	VerificationHash string
	QRDataURI        template.URL
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: 'Helvetica Neue', Arial, sans-serif; color: #222; margin: 0; }
  .header { text-align: center; border-bottom: 3px solid #2c5f2d; padding-bottom: 12px; }
  .header h1 { color: #2c5f2d; margin: 0 0 4px; font-size: 26px; }
  .header p { margin: 2px 0; font-size: 11px; color: #555; }
  .title { text-align: center; margin: 18px 0 6px; }
  .title h2 { display: inline-block; border: 2px solid #2c5f2d; color: #2c5f2d;
    padding: 6px 28px; font-size: 16px; letter-spacing: 2px; margin: 0; }
  .meta { display: flex; justify-content: space-between; font-size: 12px; margin: 14px 0; }
  table.details { width: 100%; border-collapse: collapse; font-size: 13px; }
  table.details td { padding: 8px 10px; border: 1px solid #cccccc; }
  table.details td.label { width: 35%; background-color: #f4f7f4; font-weight: bold; }
  .amount-box { margin: 16px 0; padding: 14px; background-color: #f4f7f4;
    border: 1px solid #2c5f2d; text-align: center; }
  .amount-box .figure { font-size: 22px; font-weight: bold; color: #2c5f2d; }
  .amount-box .words { font-size: 12px; margin-top: 4px; font-style: italic; }
  .tax-note { font-size: 11px; color: #555; border-top: 1px dashed #aaaaaa;
    padding-top: 10px; margin-top: 16px; }
  .verify { display: flex; align-items: center; justify-content: space-between;
    margin-top: 18px; }
  .verify .hash { font-size: 9px; color: #888; word-break: break-all; max-width: 70%; }
  .verify img { width: 96px; height: 96px; }
  .footer { text-align: center; font-size: 10px; color: #999; margin-top: 20px; }
</style>
</head>
<body>
  <div class="header">
    <h1>{{.OrgName}}</h1>
    {{if .RegistrationNumber}}<p>Regd. No: {{.RegistrationNumber}}</p>{{end}}
    {{if .PANNumber}}<p>PAN: {{.PANNumber}}</p>{{end}}
    {{if .Address}}<p>{{.Address}}</p>{{end}}
    <p>{{if .Phone}}{{.Phone}}{{end}}{{if .Email}} | {{.Email}}{{end}}{{if .Website}} | {{.Website}}{{end}}</p>
  </div>

  <div class="title"><h2>DONATION RECEIPT</h2></div>

  <div class="meta">
    <span>Receipt No: <strong>{{.ReceiptNumber}}</strong></span>
    <span>Date: <strong>{{.Date}}</strong></span>
    <span>Financial Year: <strong>{{.FinancialYear}}</strong></span>
  </div>

  <table class="details">
    <tr><td class="label">Received From</td><td>{{.DonorName}}</td></tr>
    <tr><td class="label">Email</td><td>{{.DonorEmail}}</td></tr>
    {{if .DonorPhone}}<tr><td class="label">Phone</td><td>{{.DonorPhone}}</td></tr>{{end}}
    {{if .DonorAddress}}<tr><td class="label">Address</td><td>{{.DonorAddress}}</td></tr>{{end}}
    {{if .DonorPAN}}<tr><td class="label">Donor PAN</td><td>{{.DonorPAN}}</td></tr>{{end}}
    {{if .Purpose}}<tr><td class="label">Purpose</td><td>{{.Purpose}}</td></tr>{{end}}
    {{if .PaymentID}}<tr><td class="label">Payment Reference</td><td>{{.PaymentID}}</td></tr>{{end}}
    <tr><td class="label">Mode of Payment</td><td>Online (Razorpay)</td></tr>
  </table>

  <div class="amount-box">
    <div class="figure">&#8377; {{.Amount}}</div>
    <div class="words">Rupees {{.AmountWords}} Only</div>
  </div>

  {{if .Section80G}}
  <div class="tax-note">
    This donation is eligible for deduction under Section 80G of the Income Tax
    Act, 1961. 80G Registration: {{.Section80G}}. This is a computer generated
    receipt and does not require a signature.
  </div>
  {{end}}

  <div class="verify">
    <div class="hash">Verification: {{.VerificationHash}}</div>
    {{if .QRDataURI}}<img src="{{.QRDataURI}}" alt="verification qr">{{end}}
  </div>

  <div class="footer">{{.OrgName}} thanks you for your support.</div>
</body>
</html>
`))

func renderReceiptHTML(doc receiptDocument) (string, error) {
	var sb strings.Builder
	if err := receiptTmpl.Execute(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}
