package dolibarr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/invoicemailer/internal/model"
)

// PageSize is the number of invoices requested per page.
const PageSize = 300

// PageRequest is one call to the invoice listing endpoint.
type PageRequest struct {
	SQLFilters string
	Limit      int
	Page       int
}

func (p PageRequest) query() url.Values {
	q := url.Values{}
	q.Set("sqlfilters", p.SQLFilters)
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("page", strconv.Itoa(p.Page))
	return q
}

// ApprovedInvoicesFilter returns the sqlfilters expression selecting invoices
// created on day between 18:00:00 and 23:59:59 (exclusive bounds) whose
// vendorapproved extra field is LIKE "Yes".
func ApprovedInvoicesFilter(day time.Time) string {
	d := day.Format("20060102")
	return fmt.Sprintf(
		"(t.datec:>:'%s180000') AND (t.datec:<:'%s235959') AND (vendorapproved:LIKE:Yes)",
		d, d,
	)
}

// ListInvoices fetches a single page of invoices.
func (c *Client) ListInvoices(ctx context.Context, p PageRequest) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := c.get(ctx, "/invoices", p.query(), &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// FetchInvoices pages through the invoices matching ApprovedInvoicesFilter for
// day, starting at page 0, until a page comes back empty or maxPages pages
// have been read.
//
// The returned slice always holds every invoice collected so far, in server
// order. A non-nil error means pagination stopped early: the request failed,
// or ErrPageLimit was hit. A 404 is treated as the empty terminating page.
func (c *Client) FetchInvoices(ctx context.Context, day time.Time, maxPages int) ([]model.Invoice, error) {
	filter := ApprovedInvoicesFilter(day)
	c.logger.Info("fetching invoices", "date", day.Format("20060102"), "sqlfilters", filter)

	var all []model.Invoice
	for page := 0; page < maxPages; page++ {
		invoices, err := c.ListInvoices(ctx, PageRequest{
			SQLFilters: filter,
			Limit:      PageSize,
			Page:       page,
		})
		if err != nil {
			if IsNotFound(err) {
				c.logger.Info("no more invoices found", "page", page)
				return all, nil
			}
			return all, fmt.Errorf("fetch invoice page %d: %w", page, err)
		}

		if len(invoices) == 0 {
			c.logger.Info("no more invoices found", "page", page)
			return all, nil
		}

		all = append(all, invoices...)
		c.logger.Info("fetched invoices", "page", page, "count", len(invoices), "total", len(all))
	}

	return all, fmt.Errorf("after %d pages: %w", maxPages, ErrPageLimit)
}

