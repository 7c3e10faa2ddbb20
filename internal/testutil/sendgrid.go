package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// SentAddress is an address in a SendGrid payload.
type SentAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SentAttachment is an attachment in a SendGrid payload.
type SentAttachment struct {
	Content     string `json:"content"`
	Type        string `json:"type"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

// SentMail is the part of a SendGrid v3 mail send payload tests look at.
type SentMail struct {
	From             SentAddress `json:"from"`
	Subject          string      `json:"subject"`
	Personalizations []struct {
		To []SentAddress `json:"to"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Attachments []SentAttachment `json:"attachments"`
}

// SendGrid is a fake SendGrid v3 mail send endpoint.
type SendGrid struct {
	*httptest.Server

	APIKey string

	mu     sync.Mutex
	reject map[string]int
	sent   []SentMail
}

// NewSendGrid starts a fake SendGrid API accepting apiKey. It is closed when
// the test ends.
func NewSendGrid(t *testing.T, apiKey string) *SendGrid {
	t.Helper()

	s := &SendGrid{APIKey: apiKey, reject: map[string]int{}}

	r := chi.NewRouter()
	r.Post("/v3/mail/send", s.send)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// Reject makes mails with subject answer status.
func (s *SendGrid) Reject(subject string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject[subject] = status
}

// Sent returns every accepted mail, in order.
func (s *SendGrid) Sent() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMail(nil), s.sent...)
}

func (s *SendGrid) send(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.APIKey {
		writeSendGridError(w, http.StatusUnauthorized, "The provided authorization grant is invalid, expired, or revoked")
		return
	}

	var m SentMail
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeSendGridError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	s.mu.Lock()
	status, rejected := s.reject[m.Subject]
	if !rejected {
		s.sent = append(s.sent, m)
	}
	s.mu.Unlock()

	if rejected {
		writeSendGridError(w, status, "rejected")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeSendGridError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]any{{"message": message}},
	})
}
