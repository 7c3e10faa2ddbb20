package model

// Attachment is a file attached to an outgoing email. Content is already
// base64 encoded.
type Attachment struct {
	Filename    string
	ContentType string
	Disposition string
	Content     string
}

// PDFAttachment returns the attachment for an invoice PDF named <ref>.pdf.
func PDFAttachment(ref, encoded string) Attachment {
	return Attachment{
		Filename:    ref + ".pdf",
		ContentType: "application/pdf",
		Disposition: "attachment",
		Content:     encoded,
	}
}
