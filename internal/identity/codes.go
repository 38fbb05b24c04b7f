package identity

import (
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

// Message keys for upstream outcomes.
const (
	KeyLoginExists   = "login_exists"
	KeyPasswordWeak  = "password_weak"
	KeyCodeInvalid   = "code_invalid"
	KeyDatabaseError = "database_error"
	KeyTryAgainLater = "try_again_later"
	KeySomethingWent = "something_wrong"

	KeyInvalidCredentials = "invalid_credentials"
	KeyFlowExpired        = "flow_expired"
	KeyValidationFailed   = "validation_failed"
)

// addUserCodes translates Registration/adduser error codes.
var addUserCodes = map[int]Outcome{
	0:  {Field: "email", Key: KeyLoginExists},
	3:  {Field: "password", Key: KeyPasswordWeak},
	6:  {Field: "otpcode", Key: KeyCodeInvalid},
	14: {Field: "email", Key: KeyDatabaseError},
}

// changePasswordCodes translates Registration/changepassword error codes.
var changePasswordCodes = map[int]Outcome{
	0:  {Field: "login", Key: KeyLoginExists},
	6:  {Field: "otpcode", Key: KeyCodeInvalid},
	13: {Field: "otpcode", Key: KeyCodeInvalid},
}

var (
	addUserFallback        = Outcome{Key: KeyTryAgainLater}
	changePasswordFallback = Outcome{Field: "error", Key: KeySomethingWent}
	unavailableOutcome     = Outcome{Key: KeyTryAgainLater}
)

// translate maps an upstream error through table. Outages and replies without
// a numeric code never reach the table.
func translate(table map[int]Outcome, fallback Outcome, err error) Outcome {
	if upstream.IsUnavailable(err) {
		return unavailableOutcome
	}
	se, ok := upstream.AsStatus(err)
	if !ok {
		return unavailableOutcome
	}
	code, ok := se.Code()
	if !ok {
		return fallback
	}
	if outcome, ok := table[code]; ok {
		return outcome
	}
	return fallback
}
