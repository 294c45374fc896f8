package utils

import (
	"crypto/rand"
	"math/big"
)

// karakter ambigu (0/O, 1/l/I) dibuang supaya password gampang disalin
const tempPasswordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTempPassword membuat password sementara acak untuk akun student.
func GenerateTempPassword(length int) (string, error) {
	if length < 6 {
		length = 6
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}
