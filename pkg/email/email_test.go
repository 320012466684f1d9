package email

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() InvoiceEmail {
	return InvoiceEmail{
		To:            "client@example.com",
		ClientName:    "Acme <Ltd>",
		Number:        "MGL1a2b3c",
		BusinessName:  "Maglo Studio",
		Currency:      "NGN",
		DueDate:       "2026-11-01",
		Items:         []InvoiceEmailItem{{Name: "Design", Quantity: "2", Rate: "500", Amount: "1000"}},
		Amount:        "1000",
		VATPercentage: "7.5",
		VATAmount:     "75",
		TotalAmount:   "1075",
	}
}

func TestSendInvoiceEmail_NotConfigured(t *testing.T) {
	svc := NewEmailService(EmailConfig{})
	assert.ErrorIs(t, svc.SendInvoiceEmail(sampleInvoice()), ErrNotConfigured)
}

func TestSendInvoiceEmail(t *testing.T) {
	svc := NewEmailService(EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		FromName:  "Maglo",
		FromEmail: "billing@maglo.test",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, svc.SendInvoiceEmail(sampleInvoice()))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"client@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Invoice MGL1a2b3c from Maglo Studio")
	assert.Contains(t, body, "NGN 1075")
	assert.Contains(t, body, "Acme &lt;Ltd&gt;")
}
