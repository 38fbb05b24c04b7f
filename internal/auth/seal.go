package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands secret into a 32-byte key bound to purpose. Distinct
// purposes never share key material.
func DeriveKey(secret, purpose string) []byte {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("merchant-portal/"+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		panic(fmt.Sprintf("derive %s key: %v", purpose, err))
	}
	return key
}

// secrets are the upstream credentials carried inside the session token.
type secrets struct {
	AccessToken string `json:"a"`
	APIKey      string `json:"k"`
}

var errUnseal = errors.New("unseal session secrets")

type sealer struct {
	key []byte
}

// seal encrypts v with XChaCha20-Poly1305, binding it to aad (the token id).
func (s sealer) seal(v secrets, aad string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	plain, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, plain, []byte(aad))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s sealer) open(sealed, aad string) (secrets, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return secrets{}, errUnseal
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return secrets{}, err
	}
	if len(raw) < aead.NonceSize() {
		return secrets{}, errUnseal
	}
	nonce, box := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, []byte(aad))
	if err != nil {
		return secrets{}, errUnseal
	}
	var v secrets
	if err := json.Unmarshal(plain, &v); err != nil {
		return secrets{}, errUnseal
	}
	return v, nil
}
