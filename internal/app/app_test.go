package app

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/invoicemailer/internal/dolibarr"
	"github.com/invoicemailer/internal/mailer"
	"github.com/invoicemailer/internal/testutil"
)

func setConfigEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, k := range []string{"ENV", "DOLIBARR_BASE_URL", "API_KEY", "SENDGRID_API_KEY", "SENDGRID_HOST",
		"MAIL_FROM", "MAIL_FROM_NAME", "MAIL_TO", "MAX_PAGES", "RUN_DATE", "DRY_RUN", "HTTP_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestNewWiresComponents(t *testing.T) {
	setConfigEnv(t, map[string]string{
		"DOLIBARR_BASE_URL": "https://erp.example.org",
		"API_KEY":           "dol-key",
		"SENDGRID_API_KEY":  "sg-key",
		"HTTP_TIMEOUT":      "10s",
		"MAIL_FROM_NAME":    "Billing",
	})

	app, err := New([]string{"-date", "2024-03-09"})
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}

	if _, ok := app.invoices.(*dolibarr.Client); !ok {
		t.Errorf("expected a dolibarr client, got %T", app.invoices)
	}
	if _, ok := app.mailer.(*mailer.Mailer); !ok {
		t.Errorf("expected a mailer, got %T", app.mailer)
	}
	if got := app.config.RunDate.Format("20060102"); got != "20240309" {
		t.Errorf("unexpected run date %s", got)
	}
	if app.config.FromName != "Billing" {
		t.Errorf("unexpected sender name %q", app.config.FromName)
	}
}

func TestNewSendsWithSenderName(t *testing.T) {
	sg := testutil.NewSendGrid(t, "sg-key")
	setConfigEnv(t, map[string]string{
		"DOLIBARR_BASE_URL": "https://erp.example.org",
		"API_KEY":           "dol-key",
		"SENDGRID_API_KEY":  "sg-key",
		"SENDGRID_HOST":     sg.URL,
		"MAIL_FROM":         "billing@example.org",
		"MAIL_FROM_NAME":    "Billing",
	})

	app, err := New(nil)
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	if err := app.mailer.SendInvoice(context.Background(), "INV1", "QQ=="); err != nil {
		t.Fatalf("SendInvoice returned an error: %v", err)
	}

	sent := sg.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sent))
	}
	if sent[0].From.Name != "Billing" || sent[0].From.Email != "billing@example.org" {
		t.Errorf("unexpected from %+v", sent[0].From)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	setConfigEnv(t, map[string]string{
		"API_KEY":          "dol-key",
		"SENDGRID_API_KEY": "sg-key",
	})

	_, err := New(nil)
	if err == nil {
		t.Fatal("expected an error without DOLIBARR_BASE_URL")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("expected wrapped config error, got: %v", err)
	}
}
