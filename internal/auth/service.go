package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/metrics"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

// DefaultMaxAge is the fixed session lifetime measured from issuance.
const DefaultMaxAge = time.Hour

const sessionAudience = "merchant-portal"

// SignInAPI is the registration API call that authorizes credentials.
type SignInAPI interface {
	SignIn(ctx context.Context, req upstream.SignInRequest) (upstream.User, error)
}

// Options tune a Service. Secret is required.
type Options struct {
	Secret   string
	MaxAge   time.Duration
	Denylist Denylist
	Logger   *slog.Logger
}

// Service authorizes, issues, resolves and revokes sessions.
type Service struct {
	api      SignInAPI
	validate *credentials.Validator
	signKey  []byte
	sealer   sealer
	maxAge   time.Duration
	denylist Denylist
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(api SignInAPI, validate *credentials.Validator, opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		api:      api,
		validate: validate,
		signKey:  DeriveKey(opts.Secret, "session-sign"),
		sealer:   sealer{key: DeriveKey(opts.Secret, "session-seal")},
		maxAge:   opts.MaxAge,
		denylist: opts.Denylist,
		logger:   opts.Logger,
		now:      time.Now,
	}, nil
}

// MaxAge is the session lifetime.
func (s *Service) MaxAge() time.Duration { return s.maxAge }

// Authorize re-checks the credential shape and asks the registration API to
// sign the user in. Every failure is reported as ErrInvalidCredentials.
func (s *Service) Authorize(ctx context.Context, creds Credentials) (Session, error) {
	email := credentials.NormalizeEmail(creds.Email)
	form := credentials.SignInForm{Email: email, Password: creds.Password, OTPCode: creds.OTPCode}
	if failures := s.validate.Check(form); !failures.OK() {
		metrics.RecordSessionEvent("rejected")
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.api.SignIn(ctx, upstream.SignInRequest{
		Login:    email,
		Email:    email,
		OTPCode:  creds.OTPCode,
		Password: creds.Password,
	})
	if err != nil {
		metrics.RecordSessionEvent("rejected")
		if upstream.IsUnavailable(err) {
			s.logger.Warn("sign-in upstream unavailable", slog.Any("error", err))
		}
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if user.APIKey == "" {
		metrics.RecordSessionEvent("rejected")
		return Session{}, fmt.Errorf("%w: user without api key", ErrInvalidCredentials)
	}

	if user.Email != "" {
		email = user.Email
	}
	return Session{
		UserID:      user.ID,
		Email:       email,
		AccessToken: user.TokenModel.Access,
		APIKey:      user.APIKey,
		State:       Authenticating,
	}, nil
}

type sessionClaims struct {
	Email  string `json:"eml,omitempty"`
	Sealed string `json:"sec"`
	jwt.RegisteredClaims
}

// Issue signs sess into a token that expires MaxAge after now. The returned
// session carries the token id and timestamps.
func (s *Service) Issue(sess Session) (string, Session, error) {
	now := s.now().Truncate(time.Second)
	sess.ID = uuid.NewString()
	sess.IssuedAt = now
	sess.ExpiresAt = now.Add(s.maxAge)
	sess.State = Authenticated

	sealed, err := s.sealer.seal(secrets{AccessToken: sess.AccessToken, APIKey: sess.APIKey}, sess.ID)
	if err != nil {
		return "", Session{}, fmt.Errorf("seal session: %w", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email:  sess.Email,
		Sealed: sealed,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.signKey)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	metrics.RecordSessionEvent("issued")
	return signed, sess, nil
}

// Resolve verifies a token. It returns ErrNoSession for missing, forged or
// revoked tokens and ErrSessionExpired (with State Expired) once MaxAge has
// elapsed.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		metrics.RecordSessionEvent("expired")
		return Session{State: Expired}, ErrSessionExpired
	case err != nil:
		metrics.RecordSessionEvent("rejected")
		return Session{}, ErrNoSession
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.Revoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("session denylist lookup failed", slog.Any("error", err))
		} else if revoked {
			return Session{}, ErrNoSession
		}
	}

	sec, err := s.sealer.open(claims.Sealed, claims.ID)
	if err != nil {
		metrics.RecordSessionEvent("rejected")
		return Session{}, ErrNoSession
	}

	sess := Session{
		ID:          claims.ID,
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: sec.AccessToken,
		APIKey:      sec.APIKey,
		State:       Authenticated,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Revoke ends sess. With a denylist configured the token id is remembered
// until expiry so a copied cookie cannot be replayed.
func (s *Service) Revoke(ctx context.Context, sess Session) error {
	metrics.RecordSessionEvent("revoked")
	if s.denylist == nil || sess.ID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, sess.ID, sess.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
