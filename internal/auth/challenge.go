package auth

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
)

// NewLoginCode returns a six-digit numeric one-time code for the
// emailed login challenge.
func NewLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// NewResetToken returns a hex-encoded 32-byte random token for the
// password-reset link.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
