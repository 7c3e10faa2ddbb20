package dolibarr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxResponseBody bounds a decoded response. A 300-invoice page or a base64
// PDF fits comfortably.
const maxResponseBody = 64 << 20

func decodeJSON(r io.Reader, dst any) error {
	lr := &io.LimitedReader{R: r, N: maxResponseBody + 1}
	dec := json.NewDecoder(lr)

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case lr.N <= 0:
			return fmt.Errorf("body must not be larger than %d bytes", maxResponseBody)
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("decode target: %w", err)
		default:
			return err
		}
	}

	return nil
}
