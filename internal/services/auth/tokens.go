package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

func NewOpaqueToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", fmt.Errorf("invalid token size")
	}

	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func NewRefreshToken() (string, error) {
	return NewOpaqueToken(32)
}

func NewSessionID() (string, error) {
	return NewOpaqueToken(20)
}

// NewLoginCode returns a 6-digit decimal code with leading zeros kept.
func NewLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate login code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
