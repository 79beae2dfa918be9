// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	alphanumericCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
	digitCharset        = "0123456789"
)

func randomFromCharset(charset string, length int) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateRandomString returns a lowercase alphanumeric string.
func GenerateRandomString(length int) (string, error) {
	return randomFromCharset(alphanumericCharset, length)
}

// GenerateNumericCode returns a one-time code made of digits only.
func GenerateNumericCode(length int) (string, error) {
	return randomFromCharset(digitCharset, length)
}
