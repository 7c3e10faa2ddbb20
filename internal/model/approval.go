package model

// ApprovalState classifies an invoice's vendor approval flag.
type ApprovalState string

const (
	Approved     ApprovalState = "approved"
	NotApproved  ApprovalState = "not-approved"
	FieldMissing ApprovalState = "field-missing"
)

// Approval returns the invoice's approval state. Only an exact, case-sensitive
// "Yes" is approved.
func (inv Invoice) Approval() ApprovalState {
	v, ok := inv.Options.Lookup(VendorApprovedKey)
	switch {
	case !ok:
		return FieldMissing
	case v == VendorApprovedValue:
		return Approved
	default:
		return NotApproved
	}
}
