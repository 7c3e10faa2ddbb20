package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

type Config struct {
	Env string // development, production

	// Dolibarr
	DolibarrBaseURL string
	DolibarrAPIKey  string
	MaxPages        int
	HTTPTimeout     time.Duration

	// SendGrid
	SendGridAPIKey string
	SendGridHost   string
	FromEmail      string
	FromName       string
	ToEmails       []string

	RunDate time.Time
	DryRun  bool
}

// Load reads .env (if present), the environment and then args. Flags take
// precedence over environment variables.
func Load(args []string) (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	fs := flag.NewFlagSet("invoicemailer", flag.ContinueOnError)

	var runDate string
	fs.StringVar(&cfg.Env, "env", getEnv("ENV", "production"), "Environment (development, production)")
	fs.StringVar(&cfg.DolibarrBaseURL, "dolibarr-url", getEnv("DOLIBARR_BASE_URL", ""), "Dolibarr base URL")
	fs.IntVar(&cfg.MaxPages, "max-pages", getEnvInt("MAX_PAGES", 1000), "Maximum invoice pages fetched per run")
	fs.StringVar(&runDate, "date", getEnv("RUN_DATE", ""), "Creation date to poll (YYYY-MM-DD), defaults to today")
	fs.BoolVar(&cfg.DryRun, "dry-run", getEnv("DRY_RUN", "false") == "true", "Log emails instead of sending them")

	cfg.DolibarrAPIKey = getEnv("API_KEY", "")
	cfg.SendGridAPIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.SendGridHost = getEnv("SENDGRID_HOST", "https://api.sendgrid.com")
	cfg.FromEmail = getEnv("MAIL_FROM", "noreply@manpowerfpl.com")
	cfg.FromName = getEnv("MAIL_FROM_NAME", "")
	cfg.ToEmails = splitList(getEnv("MAIL_TO", "ccantillo1096@gmail.com,cengroba@gmail.com"))

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.DolibarrBaseURL = strings.TrimRight(cfg.DolibarrBaseURL, "/")

	if runDate == "" {
		cfg.RunDate = today()
	} else {
		d, err := time.ParseInLocation(dateLayout, runDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid run date %q: want YYYY-MM-DD", runDate)
		}
		cfg.RunDate = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DolibarrBaseURL == "" {
		return fmt.Errorf("DOLIBARR_BASE_URL is required")
	}
	if u, err := url.Parse(c.DolibarrBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("DOLIBARR_BASE_URL must be an absolute URL, got %q", c.DolibarrBaseURL)
	}

	if c.DolibarrAPIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}

	if c.SendGridAPIKey == "" && !c.DryRun {
		return fmt.Errorf("SENDGRID_API_KEY is required")
	}

	if c.FromEmail == "" {
		return fmt.Errorf("MAIL_FROM must not be empty")
	}

	if len(c.ToEmails) == 0 {
		return fmt.Errorf("MAIL_TO must list at least one recipient")
	}

	if c.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1")
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
