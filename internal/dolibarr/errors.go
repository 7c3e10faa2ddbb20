package dolibarr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidContent is returned when a downloaded document's content is not
// valid base64.
var ErrInvalidContent = errors.New("dolibarr: document content is not valid base64")

// ErrPageLimit is returned when pagination stops at the configured page cap
// before an empty page was seen.
var ErrPageLimit = errors.New("dolibarr: page limit reached before an empty page")

// APIError is a non-2xx reply from the Dolibarr API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dolibarr: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a Dolibarr 404. The listing endpoints
// answer 404 when a filter matches nothing.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
