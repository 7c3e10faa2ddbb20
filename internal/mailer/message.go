package mailer

import (
	"fmt"

	"github.com/invoicemailer/internal/model"
)

// InvoiceBody is the HTML body of every invoice email.
const InvoiceBody = "<strong>Your invoice is attached.</strong>"

// Message is an outgoing email.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []model.Attachment
}

// InvoiceMessage builds the email carrying the PDF of invoice ref.
func (m *Mailer) InvoiceMessage(ref, encodedPDF string) Message {
	to := make([]string, len(m.cfg.To))
	copy(to, m.cfg.To)

	return Message{
		From:        m.cfg.FromAddress,
		To:          to,
		Subject:     fmt.Sprintf("Invoice %s PDF", ref),
		HTMLBody:    InvoiceBody,
		Attachments: []model.Attachment{model.PDFAttachment(ref, encodedPDF)},
	}
}
