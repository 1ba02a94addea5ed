// Package password hashes credentials with bcrypt and still verifies legacy
// unsalted SHA-256 hex digests so they can be upgraded on next login. It is
// shared with the login service that issues the access tokens this API
// accepts; the attendance endpoints never see a password.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Hash returns a salted bcrypt hash of plain.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify checks plain against stored. needsRehash is true when the match was
// against a legacy digest or a bcrypt hash with a lower cost than the
// default; callers should then store Hash(plain).
func Verify(stored, plain string) (ok bool, needsRehash bool, err error) {
	switch {
	case isBcrypt(stored):
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, false, nil
		}
		if err != nil {
			return false, false, err
		}
		cost, err := bcrypt.Cost([]byte(stored))
		if err != nil {
			return true, true, nil
		}
		return true, cost < bcrypt.DefaultCost, nil

	case isLegacySHA256(stored):
		sum := sha256.Sum256([]byte(plain))
		want, _ := hex.DecodeString(strings.ToLower(stored))
		return subtle.ConstantTimeCompare(sum[:], want) == 1, true, nil
	}

	return false, false, ErrUnknownHashFormat
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func isLegacySHA256(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
