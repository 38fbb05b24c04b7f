package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// CodeUnavailable tags transport failures and 5xx replies.
const CodeUnavailable = "UPSTREAM_UNAVAILABLE"

// ErrMissingAPIKey is returned before any wallet API call made without a key.
var ErrMissingAPIKey = errors.New("missing api key")

// StatusError is a non-2xx reply from an upstream endpoint.
type StatusError struct {
	Endpoint string
	Status   int
	Body     []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Endpoint, e.Status)
}

// Code decodes the reply body as the bare numeric error code the upstream
// services send (for example `6`). ok is false when the body is not a number.
func (e *StatusError) Code() (int, bool) {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return 0, false
	}
	code, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}
	return code, true
}

// AsStatus extracts a StatusError from err.
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsUnavailable reports whether err is a transport failure or server error.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == CodeUnavailable
}

func unavailable(endpoint string, err error) error {
	return oops.In("upstream").Code(CodeUnavailable).With("endpoint", endpoint).Wrap(err)
}
