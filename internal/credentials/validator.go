package credentials

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/congo-pay/merchant_portal/internal/locale"
)

// Kind enumerates validation failures. Each value is also the message key in
// the locale bundles.
type Kind string

const (
	EmailEmpty        Kind = "email_empty"
	EmailMalformed    Kind = "email_malformed"
	PasswordEmpty     Kind = "password_empty"
	PasswordShort     Kind = "password_short"
	PasswordNoSpecial Kind = "password_special"
	PasswordMismatch  Kind = "password_mismatch"
	CodeLength        Kind = "code_length"
	CodeNotDigits     Kind = "code_invalid"
	FieldRequired     Kind = "field_required"
	FieldInvalid      Kind = "field_invalid"
)

// Custom validation tags.
const (
	TagMailbox     = "mailbox"
	TagSpecialChar = "specialchar"
	TagDigits      = "digits"
)

// Failure is one field-scoped validation error.
type Failure struct {
	Field string
	Kind  Kind
}

// Failures is the enumerated result of a check; empty means valid.
type Failures []Failure

// OK reports whether no failure was recorded.
func (f Failures) OK() bool { return len(f) == 0 }

// Has reports whether field failed with kind.
func (f Failures) Has(field string, kind Kind) bool {
	for _, failure := range f {
		if failure.Field == field && failure.Kind == kind {
			return true
		}
	}
	return false
}

// Messages renders failures as field -> localized messages, in order.
func (f Failures) Messages(b *locale.Bundle, loc string) map[string][]string {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string][]string, len(f))
	for _, failure := range f {
		out[failure.Field] = append(out[failure.Field], b.T(loc, string(failure.Kind), failure.Field))
	}
	return out
}

// EmailForm is the first step of every multi-step auth form.
type EmailForm struct {
	Email string `form:"email" json:"email" validate:"required,mailbox"`
}

// SignInForm is the shape re-checked before calling the sign-in endpoint.
type SignInForm struct {
	Email    string `form:"email" json:"email" validate:"required,mailbox"`
	Password string `form:"password" json:"password" validate:"required,min=8"`
	OTPCode  string `form:"otpcode" json:"otpcode" validate:"required,len=5,digits"`
}

// RegistrationForm is the second registration step.
type RegistrationForm struct {
	Email           string `form:"email" json:"email" validate:"required,mailbox"`
	OTPCode         string `form:"otpcode" json:"otpcode" validate:"required,len=5,digits"`
	Password        string `form:"password" json:"password" validate:"required,min=8,specialchar"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" validate:"required"`
}

// RecoveryForm is the second password-recovery step.
type RecoveryForm struct {
	Email           string `form:"email" json:"email" validate:"required,mailbox"`
	OTPCode         string `form:"otpcode" json:"otpcode" validate:"required,len=5,digits"`
	NewPassword     string `form:"newPassword" json:"newPassword" validate:"required,min=8,specialchar"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" validate:"required"`
}

// Validator checks form structs against their validate tags.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator with the custom rules registered. It panics if a
// rule cannot be registered, which only happens on a programming error.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their form names so failures line up with inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		TagMailbox: func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		},
		TagSpecialChar: func(fl validator.FieldLevel) bool {
			return strings.ContainsAny(fl.Field().String(), SpecialChars)
		},
		TagDigits: func(fl validator.FieldLevel) bool {
			return isDigits(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}

	return &Validator{validate: v}
}

// Check validates form and returns every failure. Confirm-password
// mismatches are reported on the password field they confirm.
func (v *Validator) Check(form any) Failures {
	var failures Failures

	if err := v.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			panic(fmt.Sprintf("validate %T: %v", form, err))
		}
		for _, fe := range verrs {
			failures = append(failures, Failure{Field: fe.Field(), Kind: kindFor(fe)})
		}
	}

	switch f := form.(type) {
	case RegistrationForm:
		if f.Password != f.ConfirmPassword {
			failures = append(failures, Failure{Field: "password", Kind: PasswordMismatch})
		}
	case *RegistrationForm:
		if f.Password != f.ConfirmPassword {
			failures = append(failures, Failure{Field: "password", Kind: PasswordMismatch})
		}
	case RecoveryForm:
		if f.NewPassword != f.ConfirmPassword {
			failures = append(failures, Failure{Field: "newPassword", Kind: PasswordMismatch})
		}
	case *RecoveryForm:
		if f.NewPassword != f.ConfirmPassword {
			failures = append(failures, Failure{Field: "newPassword", Kind: PasswordMismatch})
		}
	}

	return failures
}

func kindFor(fe validator.FieldError) Kind {
	switch fe.Tag() {
	case "required":
		switch fe.Field() {
		case "email":
			return EmailEmpty
		case "password", "newPassword":
			return PasswordEmpty
		case "otpcode":
			return CodeLength
		}
		return FieldRequired
	case TagMailbox:
		return EmailMalformed
	case "min":
		return PasswordShort
	case TagSpecialChar:
		return PasswordNoSpecial
	case "len":
		return CodeLength
	case TagDigits:
		return CodeNotDigits
	}
	return FieldInvalid
}
