package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/invoicemailer/internal/config"
	"github.com/invoicemailer/internal/dolibarr"
	"github.com/invoicemailer/internal/mailer"
	"github.com/invoicemailer/internal/model"
)

type invoiceSource interface {
	FetchInvoices(ctx context.Context, day time.Time, maxPages int) ([]model.Invoice, error)
	DownloadInvoicePDF(ctx context.Context, ref string) (string, error)
}

type invoiceSender interface {
	SendInvoice(ctx context.Context, ref, encodedPDF string) error
}

type App struct {
	config   *config.Config
	logger   *slog.Logger
	invoices invoiceSource
	mailer   invoiceSender
}

func New(args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := dolibarr.NewClient(cfg.DolibarrBaseURL, cfg.DolibarrAPIKey, httpClient, logger)

	m := mailer.New(&mailer.Config{
		APIKey:      cfg.SendGridAPIKey,
		Host:        cfg.SendGridHost,
		FromName:    cfg.FromName,
		FromAddress: cfg.FromEmail,
		To:          cfg.ToEmails,
		DryRun:      cfg.DryRun,
	}, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		invoices: client,
		mailer:   m,
	}, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
