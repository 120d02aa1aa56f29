package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier decides whether a username/password pair identifies the
// site operator.
type CredentialVerifier interface {
	Verify(username, password string) bool
}

// BcryptVerifier checks the password against a bcrypt hash.
type BcryptVerifier struct {
	Username string
	Hash     []byte
}

func (v BcryptVerifier) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := bcrypt.CompareHashAndPassword(v.Hash, []byte(password)) == nil
	return userOK && passOK
}

// PlainVerifier compares against a plaintext password in constant time.
type PlainVerifier struct {
	Username string
	Password string
}

func (v PlainVerifier) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.Password)) == 1
	return userOK && passOK
}

// HashPassword returns a bcrypt hash suitable for BcryptVerifier.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
