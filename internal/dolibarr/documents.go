package dolibarr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/invoicemailer/internal/model"
)

// InvoiceModulePart is the document module Dolibarr stores invoice PDFs under.
const InvoiceModulePart = "facture"

// Document is the reply of the document download endpoint.
type Document struct {
	Filename    string      `json:"filename"`
	ContentType string      `json:"content-type"`
	FileSize    model.Loose `json:"filesize"`
	Content     *string     `json:"content"`
	Encoding    string      `json:"encoding"`
}

// InvoicePDFPath returns the conventional path of an invoice PDF, <ref>/<ref>.pdf.
func InvoicePDFPath(ref string) string {
	return ref + "/" + ref + ".pdf"
}

// DownloadDocument fetches a document from modulePart at originalFile.
func (c *Client) DownloadDocument(ctx context.Context, modulePart, originalFile string) (*Document, error) {
	q := url.Values{}
	q.Set("modulepart", modulePart)
	q.Set("original_file", originalFile)

	var doc Document
	if err := c.get(ctx, "/documents/download", q, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DownloadInvoicePDF downloads the PDF for invoice ref and returns its
// content as standard base64, validated by a decode and re-encode.
func (c *Client) DownloadInvoicePDF(ctx context.Context, ref string) (string, error) {
	doc, err := c.DownloadDocument(ctx, InvoiceModulePart, InvoicePDFPath(ref))
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	c.logger.Debug("pdf content retrieved", "ref", ref, "filename", doc.Filename, "filesize", doc.FileSize.String())

	if doc.Content == nil {
		return "", fmt.Errorf("download %s: %w: no content in reply", ref, ErrInvalidContent)
	}

	encoded, err := Reencode(*doc.Content)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	return encoded, nil
}

// Reencode decodes standard base64 content and encodes it again. Canonical
// input comes back unchanged; malformed input yields ErrInvalidContent.
func Reencode(content string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
