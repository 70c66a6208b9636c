package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt digest of plain using the given cost.
// The raw password is never stored or logged anywhere in the system.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt digest against a candidate password.
// A mismatch is an ordinary false, not an error.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
