package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// VendorApprovedKey is the array_options key Dolibarr uses for the
// vendorapproved extra field.
const VendorApprovedKey = "options_vendorapproved"

// VendorApprovedValue is the only value treated as approved.
const VendorApprovedValue = "Yes"

// Invoice is the subset of a Dolibarr invoice the mailer consumes.
type Invoice struct {
	ID       Loose   `json:"id"`
	Ref      Loose   `json:"ref"`
	TotalTTC Loose   `json:"total_ttc"`
	Options  Options `json:"array_options"`
}

// Options holds an invoice's scalar extra fields. Dolibarr sends an empty
// JSON array instead of an object when no extra field is set. Object and
// array values are left out, so one odd field never fails the invoice.
type Options map[string]string

func (o *Options) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("{")) {
		*o = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("array_options: %w", err)
	}

	out := make(Options, len(raw))
	for k, v := range raw {
		var s Loose
		if err := s.UnmarshalJSON(v); err != nil || !s.set {
			continue
		}
		out[k] = s.String()
	}
	*o = out
	return nil
}

// Lookup returns the value of an extra field and whether it was present.
func (o Options) Lookup(key string) (string, bool) {
	v, ok := o[key]
	return v, ok
}

// Loose is a scalar that Dolibarr may send as a string, a number or null.
type Loose struct {
	val string
	set bool
}

// NewLoose returns a Loose holding s.
func NewLoose(s string) Loose {
	return Loose{val: s, set: true}
}

func (l *Loose) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = Loose{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = NewLoose(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*l = NewLoose(string(data))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*l = NewLoose(n.String())
	}
	return nil
}

func (l Loose) String() string {
	return l.val
}

// Int returns the value as an integer, or 0 if it is not one.
func (l Loose) Int() int64 {
	n, _ := strconv.ParseInt(l.val, 10, 64)
	return n
}
