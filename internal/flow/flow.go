// Package flow models the two-step sign-in, registration and recovery forms
// as a value object advanced by a single reducer.
package flow

import (
	"errors"
	"fmt"
)

// Kind names the form a flow belongs to.
type Kind string

const (
	SignIn       Kind = "signin"
	Registration Kind = "registration"
	Recovery     Kind = "recovery"
)

// Valid reports whether k is a known flow kind.
func (k Kind) Valid() bool {
	switch k {
	case SignIn, Registration, Recovery:
		return true
	}
	return false
}

// Step is the position within a flow. Steps only move forward.
type Step int

const (
	EmailEntry Step = iota + 1
	OtpAndPassword
	Completed
)

func (s Step) String() string {
	switch s {
	case EmailEntry:
		return "email_entry"
	case OtpAndPassword:
		return "otp_and_password"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Flow is the state carried between the two form steps.
type Flow struct {
	Kind  Kind   `json:"kind"`
	Step  Step   `json:"step"`
	Email string `json:"email,omitempty"`
}

// New starts a flow at the email step.
func New(kind Kind) Flow {
	return Flow{Kind: kind, Step: EmailEntry}
}

// EventType enumerates reducer inputs.
type EventType int

const (
	// CodeSent means the email was accepted and a code was dispatched.
	CodeSent EventType = iota + 1
	// Submitted means the second step was accepted upstream.
	Submitted
)

// Event drives a transition. Email is only read for CodeSent.
type Event struct {
	Type  EventType
	Email string
}

// ErrIllegalTransition is returned for any event the current step does not accept.
var ErrIllegalTransition = errors.New("flow: illegal transition")

// Reduce applies e to f. The legal transitions are
// EmailEntry --CodeSent--> OtpAndPassword --Submitted--> Completed.
// On error f is returned unchanged.
func Reduce(f Flow, e Event) (Flow, error) {
	if !f.Kind.Valid() {
		return f, fmt.Errorf("%w: unknown kind %q", ErrIllegalTransition, f.Kind)
	}
	switch {
	case f.Step == EmailEntry && e.Type == CodeSent:
		if e.Email == "" {
			return f, fmt.Errorf("%w: code sent without email", ErrIllegalTransition)
		}
		return Flow{Kind: f.Kind, Step: OtpAndPassword, Email: e.Email}, nil
	case f.Step == OtpAndPassword && e.Type == Submitted:
		return Flow{Kind: f.Kind, Step: Completed, Email: f.Email}, nil
	}
	return f, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, eventName(e.Type), f.Step)
}

// AwaitingCode reports whether f is a live second step of kind.
func (f Flow) AwaitingCode(kind Kind) bool {
	return f.Kind == kind && f.Step == OtpAndPassword && f.Email != ""
}

func eventName(t EventType) string {
	switch t {
	case CodeSent:
		return "code_sent"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("event(%d)", int(t))
}
