package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	DefaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"
)

// Config holds SendGrid credentials and the fixed envelope of every invoice
// email.
type Config struct {
	APIKey      string
	Host        string
	FromName    string
	FromAddress string
	To          []string
	DryRun      bool
}

// Mailer sends emails through the SendGrid v3 mail send API.
type Mailer struct {
	cfg    *Config
	logger *slog.Logger

	// sendFn delivers a message. Tests replace it to capture output.
	sendFn func(ctx context.Context, msg Message) error
}

// New returns a Mailer. In dry-run mode messages are logged, never sent.
func New(cfg *Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{cfg: cfg, logger: logger}
	if cfg.DryRun {
		m.sendFn = m.logOnly
	} else {
		m.sendFn = m.send
	}
	return m
}

// SendError is a SendGrid reply outside 2xx.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sendgrid: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// SendInvoice emails the PDF of invoice ref, given as base64, to the
// configured recipients.
func (m *Mailer) SendInvoice(ctx context.Context, ref, encodedPDF string) error {
	msg := m.InvoiceMessage(ref, encodedPDF)
	if err := m.sendFn(ctx, msg); err != nil {
		return fmt.Errorf("send invoice %s: %w", ref, err)
	}
	return nil
}

func (m *Mailer) send(ctx context.Context, msg Message) error {
	host := m.cfg.Host
	if host == "" {
		host = DefaultHost
	}

	request := sendgrid.GetRequest(m.cfg.APIKey, sendEndpoint, host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(m.buildMail(msg))

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SendError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	m.logger.Info("email sent", "subject", msg.Subject, "status", resp.StatusCode)
	return nil
}

func (m *Mailer) logOnly(_ context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	m.logger.Info("email would be sent",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", names,
	)
	return nil
}

// buildMail converts msg into a SendGrid v3 payload. All recipients share a
// single personalization.
func (m *Mailer) buildMail(msg Message) *mail.SGMailV3 {
	sg := mail.NewV3Mail()
	sg.SetFrom(mail.NewEmail(m.cfg.FromName, msg.From))
	sg.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(mail.NewEmail("", to))
	}
	sg.AddPersonalizations(p)

	sg.AddContent(mail.NewContent("text/html", msg.HTMLBody))

	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetContent(att.Content)
		a.SetType(att.ContentType)
		a.SetFilename(att.Filename)
		a.SetDisposition(att.Disposition)
		sg.AddAttachment(a)
	}
	return sg
}
