package identity

import (
	"context"
	"log/slog"

	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/notification"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

// Registry is the part of the registration API used for account changes.
type Registry interface {
	AddUser(ctx context.Context, req upstream.AddUserRequest) error
	ChangePassword(ctx context.Context, req upstream.ChangePasswordRequest) error
}

// Service registers accounts and resets passwords through the registration API.
type Service struct {
	registry Registry
	validate *credentials.Validator
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService creates a new identity service.
func NewService(registry Registry, validate *credentials.Validator, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: registry, validate: validate, notifier: notifier, logger: logger}
}

// Register validates the second registration step and creates the account.
// Errors are *InvalidError or *RejectedError.
func (s *Service) Register(ctx context.Context, in Registration) error {
	email := credentials.NormalizeEmail(in.Email)
	form := credentials.RegistrationForm{Email: email, OTPCode: in.OTPCode, Password: in.Password, ConfirmPassword: in.ConfirmPassword}
	if failures := s.validate.Check(form); !failures.OK() {
		return &InvalidError{Failures: failures}
	}

	err := s.registry.AddUser(ctx, upstream.AddUserRequest{Email: email, OTPCode: in.OTPCode, Password: in.Password, Login: email})
	if err != nil {
		outcome := translate(addUserCodes, addUserFallback, err)
		s.logger.Info("registration rejected", slog.String("outcome", outcome.Key), slog.Any("error", err))
		return &RejectedError{Outcome: outcome, Err: err}
	}

	s.notify(ctx, notification.Message{Kind: notification.KindAccountRegistered, Destination: email})
	return nil
}

// Recover validates the second recovery step and sets the new password.
func (s *Service) Recover(ctx context.Context, in Recovery) error {
	email := credentials.NormalizeEmail(in.Email)
	form := credentials.RecoveryForm{Email: email, OTPCode: in.OTPCode, NewPassword: in.NewPassword, ConfirmPassword: in.ConfirmPassword}
	if failures := s.validate.Check(form); !failures.OK() {
		return &InvalidError{Failures: failures}
	}

	err := s.registry.ChangePassword(ctx, upstream.ChangePasswordRequest{Email: email, OTPCode: in.OTPCode, NewPassword: in.NewPassword, Login: email})
	if err != nil {
		outcome := translate(changePasswordCodes, changePasswordFallback, err)
		s.logger.Info("password recovery rejected", slog.String("outcome", outcome.Key), slog.Any("error", err))
		return &RejectedError{Outcome: outcome, Err: err}
	}

	s.notify(ctx, notification.Message{Kind: notification.KindPasswordChanged, Destination: email})
	return nil
}

// SignedIn announces a new session to its user.
func (s *Service) SignedIn(ctx context.Context, userID, email string) {
	s.notify(ctx, notification.Message{Kind: notification.KindSignedIn, UserID: userID, Destination: email})
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}
