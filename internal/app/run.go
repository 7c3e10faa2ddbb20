package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoicemailer/internal/dolibarr"
	"github.com/invoicemailer/internal/invoice"
	"github.com/invoicemailer/internal/model"
)

// Summary counts what a run did.
type Summary struct {
	Fetched    int
	Approved   int
	Skipped    int
	Downloaded int
	Sent       int
	Failed     int
}

// Run fetches today's approved invoices and mails each one's PDF. Failures
// on a single invoice are logged and counted, never returned. The only error
// returned is ctx's, when the run was interrupted.
//
// Nothing is remembered between runs, so a second run on the same day mails
// the same invoices again.
func (app *App) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	all, err := app.invoices.FetchInvoices(ctx, app.config.RunDate, app.config.MaxPages)
	switch {
	case errors.Is(err, dolibarr.ErrPageLimit):
		app.logger.Warn("invoice fetch stopped at page limit", "max_pages", app.config.MaxPages, "collected", len(all))
	case err != nil:
		app.logger.Error("invoice fetch stopped early", "collected", len(all), "err", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return sum, ctxErr
	}

	sum.Fetched = len(all)
	app.logger.Info("total invoices collected", "count", sum.Fetched)

	tally := invoice.Tally(all)
	app.logger.Debug("approval states",
		string(model.Approved), tally[model.Approved],
		string(model.NotApproved), tally[model.NotApproved],
		string(model.FieldMissing), tally[model.FieldMissing],
	)

	approved := invoice.Select(all)
	sum.Approved = len(approved)
	sum.Skipped = sum.Fetched - sum.Approved

	for _, inv := range approved {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if err := app.process(ctx, inv, &sum); err != nil {
			sum.Failed++
			app.logger.Error("invoice not mailed", "ref", inv.Ref.String(), "err", err)
		}
	}

	app.logger.Info("all invoices processed",
		"fetched", sum.Fetched,
		"approved", sum.Approved,
		"skipped", sum.Skipped,
		"downloaded", sum.Downloaded,
		"sent", sum.Sent,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (app *App) process(ctx context.Context, inv model.Invoice, sum *Summary) error {
	ref := inv.Ref.String()
	app.logger.Info("invoice found", "id", inv.ID.String(), "ref", ref, "total_ttc", inv.TotalTTC.String())

	if ref == "" {
		return fmt.Errorf("invoice %s has no ref", inv.ID.String())
	}

	pdf, err := app.invoices.DownloadInvoicePDF(ctx, ref)
	if err != nil {
		return err
	}
	sum.Downloaded++

	if err := app.mailer.SendInvoice(ctx, ref, pdf); err != nil {
		return err
	}
	sum.Sent++
	return nil
}
