package otp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/merchant_portal/internal/logging"
)

type fakeRegistry struct {
	status    int
	existsErr error
	sendErr   error
	checked   []string
	sent      []string
}

func (f *fakeRegistry) EmailExists(_ context.Context, email string) (int, error) {
	f.checked = append(f.checked, email)
	return f.status, f.existsErr
}

func (f *fakeRegistry) SendCode(_ context.Context, email string) error {
	f.sent = append(f.sent, email)
	return f.sendErr
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var oe *Error
	require.True(t, errors.As(err, &oe), "expected *otp.Error, got %v", err)
	return oe.Kind
}

func TestRequestCodeRejectsBadEmailWithoutCalls(t *testing.T) {
	reg := &fakeRegistry{status: http.StatusOK}
	gw := NewGateway(reg, logging.Discard())

	assert.Equal(t, EmailEmpty, kindOf(t, gw.RequestCode(context.Background(), PurposeSignIn, "   ")))
	assert.Equal(t, EmailMalformed, kindOf(t, gw.RequestCode(context.Background(), PurposeSignIn, "a..b@x.com")))
	assert.Empty(t, reg.checked)
	assert.Empty(t, reg.sent)
}

func TestRequestCodePolarity(t *testing.T) {
	cases := []struct {
		name    string
		purpose Purpose
		status  int
		want    Kind
		sent    bool
	}{
		{name: "signin unknown email", purpose: PurposeSignIn, status: http.StatusBadRequest, want: EmailNotFound},
		{name: "signin known email", purpose: PurposeSignIn, status: http.StatusOK, sent: true},
		{name: "recovery unknown email", purpose: PurposeRecovery, status: http.StatusBadRequest, want: EmailNotFound},
		{name: "registration taken email", purpose: PurposeRegistration, status: http.StatusOK, want: EmailAlreadyExists},
		{name: "registration free email", purpose: PurposeRegistration, status: http.StatusBadRequest, sent: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := &fakeRegistry{status: tc.status}
			err := NewGateway(reg, logging.Discard()).RequestCode(context.Background(), tc.purpose, " user@example.com ")
			if tc.sent {
				require.NoError(t, err)
				assert.Equal(t, []string{"user@example.com"}, reg.sent)
				return
			}
			assert.Equal(t, tc.want, kindOf(t, err))
			assert.Empty(t, reg.sent)
		})
	}
}

func TestRequestCodeDispatchFailures(t *testing.T) {
	boom := errors.New("connection refused")

	reg := &fakeRegistry{existsErr: boom}
	err := NewGateway(reg, logging.Discard()).RequestCode(context.Background(), PurposeSignIn, "user@example.com")
	assert.Equal(t, DispatchFailed, kindOf(t, err))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, reg.sent)

	reg = &fakeRegistry{status: http.StatusOK, sendErr: boom}
	err = NewGateway(reg, logging.Discard()).RequestCode(context.Background(), PurposeSignIn, "user@example.com")
	assert.Equal(t, DispatchFailed, kindOf(t, err))
	assert.Len(t, reg.sent, 1, "no retry")
}
