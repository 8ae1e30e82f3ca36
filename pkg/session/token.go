package session

import (
	"crypto/rand"
	"errors"
	"io"
)

const (
	// DefaultTokenLength is the length of issued tokens.
	DefaultTokenLength = 40

	tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// rejectAbove keeps the modulo unbiased: 252 is the largest multiple of 36 below 256.
	rejectAbove = 256 - 256%len(tokenAlphabet)
)

// GenerateToken returns n characters from [a-z0-9] read from crypto/rand.
func GenerateToken(n int) (string, error) {
	return generateToken(rand.Reader, n)
}

func generateToken(src io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.Join(ErrTokenGeneration, errors.New("length must be positive"))
	}
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4)
	for len(out) < n {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", errors.Join(ErrTokenGeneration, err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
