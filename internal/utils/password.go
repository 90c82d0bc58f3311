package utils

import "golang.org/x/crypto/bcrypt"

// HashCredential returns the bcrypt hash of a login passphrase using the
// given cost.
func HashCredential(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyCredential safely compares a bcrypt hash and a plain passphrase.
func VerifyCredential(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
