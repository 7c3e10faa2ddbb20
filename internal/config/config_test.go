package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"ENV", "DOLIBARR_BASE_URL", "API_KEY", "SENDGRID_API_KEY", "SENDGRID_HOST",
	"MAIL_FROM", "MAIL_FROM_NAME", "MAIL_TO", "MAX_PAGES", "RUN_DATE", "DRY_RUN", "HTTP_TIMEOUT",
}

// setEnv clears every config variable, then sets vars. The previous
// environment is restored when the test ends.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		"DOLIBARR_BASE_URL": "https://erp.example.org/",
		"API_KEY":           "dol-key",
		"SENDGRID_API_KEY":  "sg-key",
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, requiredEnv())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned an error: %v", err)
	}

	if cfg.DolibarrBaseURL != "https://erp.example.org" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.DolibarrBaseURL)
	}
	if cfg.DolibarrAPIKey != "dol-key" || cfg.SendGridAPIKey != "sg-key" {
		t.Errorf("unexpected keys: %q %q", cfg.DolibarrAPIKey, cfg.SendGridAPIKey)
	}
	if cfg.SendGridHost != "https://api.sendgrid.com" {
		t.Errorf("unexpected sendgrid host %q", cfg.SendGridHost)
	}
	if cfg.FromEmail != "noreply@manpowerfpl.com" {
		t.Errorf("unexpected sender %q", cfg.FromEmail)
	}
	if cfg.FromName != "" {
		t.Errorf("expected no sender name, got %q", cfg.FromName)
	}
	if len(cfg.ToEmails) != 2 {
		t.Errorf("expected two default recipients, got %v", cfg.ToEmails)
	}
	if cfg.MaxPages != 1000 {
		t.Errorf("expected max pages 1000, got %d", cfg.MaxPages)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("expected no timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.DryRun || cfg.IsDevelopment() {
		t.Errorf("unexpected dry-run %v / env %q", cfg.DryRun, cfg.Env)
	}

	y, m, d := time.Now().Date()
	gy, gm, gd := cfg.RunDate.Date()
	if y != gy || m != gm || d != gd {
		t.Errorf("expected run date today, got %s", cfg.RunDate)
	}
}

func TestLoadFromEnv(t *testing.T) {
	env := requiredEnv()
	env["MAIL_FROM"] = "billing@example.org"
	env["MAIL_FROM_NAME"] = "Billing"
	env["MAIL_TO"] = " a@example.org, ,b@example.org,c@example.org "
	env["MAX_PAGES"] = "5"
	env["RUN_DATE"] = "2024-03-09"
	env["HTTP_TIMEOUT"] = "30s"
	env["ENV"] = "development"
	setEnv(t, env)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned an error: %v", err)
	}

	if got := strings.Join(cfg.ToEmails, ","); got != "a@example.org,b@example.org,c@example.org" {
		t.Errorf("unexpected recipients %q", got)
	}
	if cfg.FromEmail != "billing@example.org" || cfg.FromName != "Billing" {
		t.Errorf("unexpected sender %q <%s>", cfg.FromName, cfg.FromEmail)
	}
	if cfg.MaxPages != 5 {
		t.Errorf("expected max pages 5, got %d", cfg.MaxPages)
	}
	if got := cfg.RunDate.Format("20060102"); got != "20240309" {
		t.Errorf("unexpected run date %s", got)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %s", cfg.HTTPTimeout)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development env")
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	env := requiredEnv()
	env["MAX_PAGES"] = "5"
	setEnv(t, env)

	cfg, err := Load([]string{"-max-pages", "2", "-date", "2023-12-31", "-dolibarr-url", "http://other.example.org"})
	if err != nil {
		t.Fatalf("Load returned an error: %v", err)
	}
	if cfg.MaxPages != 2 {
		t.Errorf("expected flag max pages 2, got %d", cfg.MaxPages)
	}
	if got := cfg.RunDate.Format("2006-01-02"); got != "2023-12-31" {
		t.Errorf("unexpected run date %s", got)
	}
	if cfg.DolibarrBaseURL != "http://other.example.org" {
		t.Errorf("unexpected base url %q", cfg.DolibarrBaseURL)
	}
}

func TestDryRunDoesNotNeedSendGridKey(t *testing.T) {
	env := requiredEnv()
	delete(env, "SENDGRID_API_KEY")
	setEnv(t, env)

	if _, err := Load(nil); err == nil {
		t.Fatal("expected error without SENDGRID_API_KEY")
	}

	cfg, err := Load([]string{"-dry-run"})
	if err != nil {
		t.Fatalf("Load returned an error in dry-run: %v", err)
	}
	if !cfg.DryRun {
		t.Error("expected dry-run")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		modify  func(env map[string]string)
		args    []string
		wantErr string
	}{
		{"missing base url", func(env map[string]string) { delete(env, "DOLIBARR_BASE_URL") }, nil, "DOLIBARR_BASE_URL is required"},
		{"relative base url", func(env map[string]string) { env["DOLIBARR_BASE_URL"] = "erp.example.org" }, nil, "absolute URL"},
		{"missing api key", func(env map[string]string) { delete(env, "API_KEY") }, nil, "API_KEY is required"},
		{"missing sendgrid key", func(env map[string]string) { delete(env, "SENDGRID_API_KEY") }, nil, "SENDGRID_API_KEY is required"},
		{"empty recipients", func(env map[string]string) { env["MAIL_TO"] = " , " }, nil, "MAIL_TO"},
		{"empty sender", func(env map[string]string) { env["MAIL_FROM"] = "" }, nil, "MAIL_FROM"},
		{"zero pages", func(env map[string]string) {}, []string{"-max-pages", "0"}, "MAX_PAGES"},
		{"bad date", func(env map[string]string) { env["RUN_DATE"] = "15/10/2026" }, nil, "invalid run date"},
		{"bad timeout", func(env map[string]string) { env["HTTP_TIMEOUT"] = "soon" }, nil, "HTTP_TIMEOUT"},
		{"negative timeout", func(env map[string]string) { env["HTTP_TIMEOUT"] = "-1s" }, nil, "HTTP_TIMEOUT"},
		{"unknown flag", func(env map[string]string) {}, []string{"-bogus"}, "bogus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := requiredEnv()
			tc.modify(env)
			setEnv(t, env)

			_, err := Load(tc.args)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tc.wantErr, err)
			}
		})
	}
}
