// Package invoice selects which fetched invoices get mailed.
package invoice

import "github.com/invoicemailer/internal/model"

// Select returns the approved invoices, in input order. The server-side
// filter is a LIKE match, so this strict check is the one that counts.
func Select(invoices []model.Invoice) []model.Invoice {
	var approved []model.Invoice
	for _, inv := range invoices {
		if inv.Approval() == model.Approved {
			approved = append(approved, inv)
		}
	}
	return approved
}

// Tally counts invoices per approval state.
func Tally(invoices []model.Invoice) map[model.ApprovalState]int {
	counts := map[model.ApprovalState]int{
		model.Approved:     0,
		model.NotApproved:  0,
		model.FieldMissing: 0,
	}
	for _, inv := range invoices {
		counts[inv.Approval()]++
	}
	return counts
}
