package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	FrontendURL  string
}

// InvoiceEmail is the data rendered into an outgoing invoice
type InvoiceEmail struct {
	To              string
	ClientName      string
	Number          string
	BusinessName    string
	BusinessEmail   string
	BusinessAddress string
	Currency        string
	DueDate         string
	Items           []InvoiceEmailItem
	Amount          string
	VATPercentage   string
	VATAmount       string
	TotalAmount     string
	ViewURL         string
}

// InvoiceEmailItem is one line of an outgoing invoice
type InvoiceEmailItem struct {
	Name     string
	Quantity string
	Rate     string
	Amount   string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   sendFunc
	tmpl   *template.Template
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{
		config: config,
		send:   smtp.SendMail,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

// IsConfigured reports whether SMTP settings are present
func (s *EmailService) IsConfigured() bool {
	return s.config.SMTPHost != "" && s.config.FromEmail != ""
}

// SendInvoiceEmail emails an invoice summary to the client
func (s *EmailService) SendInvoiceEmail(data InvoiceEmail) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	if data.ViewURL == "" && s.config.FrontendURL != "" {
		data.ViewURL = s.config.FrontendURL + "/invoices"
	}

	htmlContent, err := s.RenderInvoice(data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	from := data.BusinessName
	if from == "" {
		from = s.config.FromName
	}
	subject := fmt.Sprintf("Invoice %s from %s", data.Number, from)
	message := s.buildHTMLEmail(data.To, subject, htmlContent)

	return s.sendEmail(data.To, message)
}

// RenderInvoice renders the invoice HTML body
func (s *EmailService) RenderInvoice(data InvoiceEmail) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

const invoiceTemplate = `
<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Invoice {{.Number}}</title></head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f8f8f8;">
    <table role="presentation" style="max-width: 640px; margin: 40px auto; background-color: #ffffff; border-radius: 10px; border-collapse: collapse;">
        <tr>
            <td style="padding: 30px; background-color: #1b212d; color: #ffffff;">
                <h1 style="margin: 0; font-size: 22px;">Invoice {{.Number}}</h1>
                {{if .BusinessName}}<p style="margin: 6px 0 0 0;">{{.BusinessName}}</p>{{end}}
                {{if .BusinessAddress}}<p style="margin: 2px 0 0 0; font-size: 13px;">{{.BusinessAddress}}</p>{{end}}
            </td>
        </tr>
        <tr>
            <td style="padding: 30px; color: #1b212d;">
                <p>Hello {{.ClientName}},</p>
                <p>Please find your invoice below. Payment is due on <strong>{{.DueDate}}</strong>.</p>
                {{if .Items}}
                <table style="width: 100%; border-collapse: collapse; font-size: 14px;">
                    <tr style="text-align: left; color: #929eae;"><th>Item</th><th>Qty</th><th>Rate</th><th>Amount</th></tr>
                    {{range .Items}}
                    <tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Rate}}</td><td>{{.Amount}}</td></tr>
                    {{end}}
                </table>
                {{end}}
                <table style="width: 100%; margin-top: 20px; font-size: 14px;">
                    <tr><td>Subtotal</td><td style="text-align: right;">{{.Currency}} {{.Amount}}</td></tr>
                    <tr><td>VAT ({{.VATPercentage}}%)</td><td style="text-align: right;">{{.Currency}} {{.VATAmount}}</td></tr>
                    <tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>{{.Currency}} {{.TotalAmount}}</strong></td></tr>
                </table>
                {{if .ViewURL}}<p style="margin-top: 30px;"><a href="{{.ViewURL}}" style="color: #29a073;">View invoice</a></p>{{end}}
            </td>
        </tr>
        {{if .BusinessEmail}}
        <tr>
            <td style="padding: 20px 30px; font-size: 12px; color: #929eae; border-top: 1px solid #f5f5f5;">
                Questions? Reply to {{.BusinessEmail}}
            </td>
        </tr>
        {{end}}
    </table>
</body>
</html>
`
