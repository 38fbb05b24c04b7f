package identity

import (
	"fmt"

	"github.com/congo-pay/merchant_portal/internal/credentials"
)

// Outcome is a user-facing result of an upstream refusal. An empty Field
// means the message belongs to the form as a whole.
type Outcome struct {
	Field string
	Key   string
}

// InvalidError carries local validation failures.
type InvalidError struct {
	Failures credentials.Failures
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("identity: %d invalid fields", len(e.Failures))
}

// RejectedError is an upstream refusal or outage mapped to an Outcome.
type RejectedError struct {
	Outcome Outcome
	Err     error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("identity: rejected (%s): %v", e.Outcome.Key, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Registration is the second registration step. Email comes from the flow.
type Registration struct {
	Email           string
	OTPCode         string
	Password        string
	ConfirmPassword string
}

// Recovery is the second password-recovery step.
type Recovery struct {
	Email           string
	OTPCode         string
	NewPassword     string
	ConfirmPassword string
}
