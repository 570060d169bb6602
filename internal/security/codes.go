// Package security generates the two unguessable values the auth flow depends
// on: the short one-time verification code delivered out-of-band, and the long
// opaque access token that doubles as an account's rotating secret.
package security

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	codeDigits       = 6
	accessTokenBytes = 32
)

// GenerateVerificationCode returns a 6-digit numeric one-time code
// (e.g. "493017"). Uses crypto/rand; a predictable code would let an attacker
// approve someone else's session.
func GenerateVerificationCode() (string, error) {
	b := make([]byte, codeDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, codeDigits)
	for i := 0; i < codeDigits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

// GenerateAccessToken returns a 64-hex-character opaque bearer token. The
// token is both the account's current secret and the session store key, so it
// must be unguessable and collision-free in practice.
func GenerateAccessToken() (string, error) {
	b := make([]byte, accessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
