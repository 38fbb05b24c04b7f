package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/merchant_portal/internal/locale"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "merchant.one@pay.example.org", "  padded@x.io  ", "UPPER@CASE.COM"}
	invalid := []string{"", "a..b@x.com", "a@b", "a@@b.com", "a,b@x.com", "a b@x.com", "a@b..com", "@b.com"}

	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword("short1!"), "7 characters")
	assert.False(t, IsValidPassword("longenough"), "no special character")
	assert.True(t, IsValidPassword("longenough!"))
	assert.True(t, IsValidPassword("пароль12{"), "length is counted in characters")
}

func TestIsValidOTP(t *testing.T) {
	assert.True(t, IsValidOTP("12345"))
	assert.False(t, IsValidOTP("1234"))
	assert.False(t, IsValidOTP("123456"))
	assert.False(t, IsValidOTP("12a45"))
	assert.False(t, IsValidOTP("１２３４５"), "full-width digits are not ASCII")
}

func TestCheckEmailDistinguishesEmptyFromMalformed(t *testing.T) {
	kind, ok := CheckEmail("   ")
	assert.False(t, ok)
	assert.Equal(t, EmailEmpty, kind)

	kind, ok = CheckEmail("nope")
	assert.False(t, ok)
	assert.Equal(t, EmailMalformed, kind)

	_, ok = CheckEmail("a@b.com")
	assert.True(t, ok)
}

func TestCheckSignInForm(t *testing.T) {
	v := New()

	assert.True(t, v.Check(SignInForm{Email: "a@b.com", Password: "whatever", OTPCode: "12345"}).OK(),
		"sign-in only re-checks length, not special characters")

	failures := v.Check(SignInForm{Email: "", Password: "short", OTPCode: "12a45"})
	assert.True(t, failures.Has("email", EmailEmpty))
	assert.True(t, failures.Has("password", PasswordShort))
	assert.True(t, failures.Has("otpcode", CodeNotDigits))

	failures = v.Check(SignInForm{Email: "a@b.com", Password: "longenough", OTPCode: "1234"})
	assert.True(t, failures.Has("otpcode", CodeLength))
}

func TestCheckRegistrationForm(t *testing.T) {
	v := New()

	ok := RegistrationForm{Email: "a@b.com", OTPCode: "12345", Password: "longenough!", ConfirmPassword: "longenough!"}
	assert.True(t, v.Check(ok).OK())

	failures := v.Check(RegistrationForm{Email: "a@b.com", OTPCode: "12345", Password: "longenough", ConfirmPassword: "different!"})
	assert.True(t, failures.Has("password", PasswordNoSpecial))
	assert.True(t, failures.Has("password", PasswordMismatch), "mismatch is reported on the password field")
	assert.False(t, failures.Has("confirmPassword", PasswordMismatch))
}

func TestCheckRecoveryFormReportsMismatchOnNewPassword(t *testing.T) {
	v := New()

	failures := v.Check(&RecoveryForm{Email: "a@b.com", OTPCode: "12345", NewPassword: "longenough!", ConfirmPassword: "longenough?"})
	require.Len(t, failures, 1)
	assert.Equal(t, Failure{Field: "newPassword", Kind: PasswordMismatch}, failures[0])
}

func TestFailureMessages(t *testing.T) {
	v := New()
	b := locale.MustLoad(locale.EN)

	type merchantForm struct {
		Name string `form:"merchant_name" validate:"required"`
	}

	msgs := v.Check(merchantForm{}).Messages(b, locale.EN)
	assert.Equal(t, map[string][]string{"merchant_name": {"merchant_name is required."}}, msgs)

	msgs = v.Check(EmailForm{Email: "bad"}).Messages(b, locale.RU)
	assert.Equal(t, []string{"Введите корректный email."}, msgs["email"])

	assert.Nil(t, Failures(nil).Messages(b, locale.EN))
}
