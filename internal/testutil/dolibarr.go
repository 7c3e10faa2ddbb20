// Package testutil provides in-process fakes of the Dolibarr and SendGrid
// HTTP APIs for tests.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// NoOptions marks an invoice whose array_options is Dolibarr's empty [].
const NoOptions = "\x00no-options"

// NoField marks an invoice whose array_options lacks options_vendorapproved.
const NoField = "\x00no-field"

// Invoice builds a Dolibarr invoice object as the API serialises it, numeric
// columns as strings. approval is the options_vendorapproved value, or one of
// NoOptions and NoField.
func Invoice(id int, ref, approval string) map[string]any {
	inv := map[string]any{
		"id":        strconv.Itoa(id),
		"ref":       ref,
		"total_ttc": fmt.Sprintf("%d.00000000", id*10),
	}
	switch approval {
	case NoOptions:
		inv["array_options"] = []any{}
	case NoField:
		inv["array_options"] = map[string]any{"options_other": "x"}
	default:
		inv["array_options"] = map[string]any{"options_vendorapproved": approval}
	}
	return inv
}

// Invoices builds n invoices with ids starting at first and refs INV<id>.
func Invoices(first, n int, approval string) []map[string]any {
	out := make([]map[string]any, 0, n)
	for id := first; id < first+n; id++ {
		out = append(out, Invoice(id, fmt.Sprintf("INV%d", id), approval))
	}
	return out
}

// Dolibarr is a fake Dolibarr REST API.
type Dolibarr struct {
	*httptest.Server

	APIKey string

	mu sync.Mutex
	// Pages are served in order; any page past the end is empty.
	pages [][]map[string]any
	// pageStatus forces a status code for a listing page.
	pageStatus map[int]int
	// emptyAs404 answers 404 instead of [] past the last page.
	emptyAs404 bool
	documents  map[string]string
	docBodies  map[string]map[string]any
	docStatus  map[string]int

	listRequests     []url.Values
	downloadRequests []url.Values
}

// NewDolibarr starts a fake Dolibarr API accepting apiKey. It is closed when
// the test ends.
func NewDolibarr(t *testing.T, apiKey string) *Dolibarr {
	t.Helper()

	d := &Dolibarr{
		APIKey:     apiKey,
		pageStatus: map[int]int{},
		documents:  map[string]string{},
		docBodies:  map[string]map[string]any{},
		docStatus:  map[string]int{},
	}

	r := chi.NewRouter()
	r.Route("/api/index.php", func(r chi.Router) {
		r.Use(d.requireKey)
		r.Get("/invoices", d.listInvoices)
		r.Get("/documents/download", d.download)
	})

	d.Server = httptest.NewServer(r)
	t.Cleanup(d.Server.Close)
	return d
}

// AddPage appends a listing page.
func (d *Dolibarr) AddPage(invoices []map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages = append(d.pages, invoices)
}

// FailPage makes listing page n answer status.
func (d *Dolibarr) FailPage(n, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pageStatus[n] = status
}

// EndWith404 makes the terminating page a 404, as Dolibarr does when a
// filter matches nothing more.
func (d *Dolibarr) EndWith404() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emptyAs404 = true
}

// AddPDF serves data as the PDF of invoice ref.
func (d *Dolibarr) AddPDF(ref string, data []byte) {
	d.AddRawPDF(ref, base64.StdEncoding.EncodeToString(data))
}

// AddRawPDF serves content verbatim as the base64 content of invoice ref.
func (d *Dolibarr) AddRawPDF(ref, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.documents[ref+"/"+ref+".pdf"] = content
}

// AddDocumentBody serves body verbatim as the download reply for invoice ref.
func (d *Dolibarr) AddDocumentBody(ref string, body map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docBodies[ref+"/"+ref+".pdf"] = body
}

// FailPDF makes the download of invoice ref answer status.
func (d *Dolibarr) FailPDF(ref string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docStatus[ref+"/"+ref+".pdf"] = status
}

// ListRequests returns the query of every listing call, in order.
func (d *Dolibarr) ListRequests() []url.Values {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]url.Values(nil), d.listRequests...)
}

// DownloadRequests returns the query of every download call, in order.
func (d *Dolibarr) DownloadRequests() []url.Values {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]url.Values(nil), d.downloadRequests...)
}

func (d *Dolibarr) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("DOLAPIKEY") != d.APIKey {
			writeError(w, http.StatusUnauthorized, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Dolibarr) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	d.mu.Lock()
	d.listRequests = append(d.listRequests, q)
	page, err := strconv.Atoi(q.Get("page"))
	status, failed := d.pageStatus[page]
	var invoices []map[string]any
	if err == nil && page >= 0 && page < len(d.pages) {
		invoices = d.pages[page]
	}
	emptyAs404 := d.emptyAs404
	d.mu.Unlock()

	switch {
	case err != nil:
		writeError(w, http.StatusBadRequest, "Bad page")
	case failed:
		writeError(w, status, http.StatusText(status))
	case len(invoices) == 0 && emptyAs404:
		writeError(w, http.StatusNotFound, "No invoice found")
	case len(invoices) == 0:
		writeJSON(w, http.StatusOK, []any{})
	default:
		writeJSON(w, http.StatusOK, invoices)
	}
}

func (d *Dolibarr) download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := q.Get("original_file")

	d.mu.Lock()
	d.downloadRequests = append(d.downloadRequests, q)
	status, failed := d.docStatus[file]
	content, ok := d.documents[file]
	body, verbatim := d.docBodies[file]
	d.mu.Unlock()

	switch {
	case q.Get("modulepart") != "facture":
		writeError(w, http.StatusBadRequest, "Bad modulepart")
	case failed:
		writeError(w, status, http.StatusText(status))
	case verbatim:
		writeJSON(w, http.StatusOK, body)
	case !ok:
		writeError(w, http.StatusNotFound, "File not found")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"filename":     file,
			"content-type": "application/pdf",
			"filesize":     len(content) * 3 / 4,
			"content":      content,
			"encoding":     "base64",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}
