package admission

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

const errorMessageMissingIdentitySecret = "admission: missing identity hash secret"

// ErrMissingIdentitySecret indicates the identity hasher was constructed without a secret.
var ErrMissingIdentitySecret = errors.New(errorMessageMissingIdentitySecret)

// IdentityHasher derives stable, non-reversible identity tokens from raw
// client addresses. The raw address must never be logged or persisted; only
// the derived token leaves this type.
type IdentityHasher struct {
	secret []byte
}

// NewIdentityHasher creates an IdentityHasher keyed with the provided secret.
// Rotating the secret invalidates all previously derived tokens.
func NewIdentityHasher(secret string) (*IdentityHasher, error) {
	if secret == "" {
		return nil, ErrMissingIdentitySecret
	}
	return &IdentityHasher{secret: []byte(secret)}, nil
}

// HashIdentity returns the HMAC-SHA256 of the raw address under the server
// secret, rendered as 64 lowercase hex characters. The same address and
// secret always produce the same token.
func (hasher *IdentityHasher) HashIdentity(rawAddress string) string {
	digest := hmac.New(sha256.New, hasher.secret)
	digest.Write([]byte(rawAddress))
	return hex.EncodeToString(digest.Sum(nil))
}
