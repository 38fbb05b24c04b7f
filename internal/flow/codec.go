package flow

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName holds the signed flow between the two form steps.
const CookieName = "auth_flow"

const audience = "auth-flow"

// ErrNoFlow is returned when the cookie is missing, tampered with, expired or
// belongs to another form.
var ErrNoFlow = errors.New("flow: no active flow")

type claims struct {
	Kind  Kind   `json:"knd"`
	Step  Step   `json:"stp"`
	Email string `json:"eml"`
	jwt.RegisteredClaims
}

// Codec signs flows into short-lived cookie values.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec builds a codec. key should be derived for this purpose only.
func NewCodec(key []byte, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Codec{key: key, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of an encoded flow.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Encode signs f and returns the cookie value with its expiry.
func (c *Codec) Encode(f Flow) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind:  f.Kind,
		Step:  f.Step,
		Email: f.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Decode verifies value and returns the flow it carries if it is of kind.
func (c *Codec) Decode(value string, kind Kind) (Flow, error) {
	if value == "" {
		return Flow{}, ErrNoFlow
	}
	var cl claims
	_, err := jwt.ParseWithClaims(value, &cl, func(*jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || cl.Kind != kind {
		return Flow{}, ErrNoFlow
	}
	return Flow{Kind: cl.Kind, Step: cl.Step, Email: cl.Email}, nil
}
