package signup

import (
	"crypto/rand"
	"math/big"
)

// Referral codes are typed by hand at signup, so the alphabet drops the
// characters people confuse: 0/O, 1/I/L.
const (
	referralCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	referralCodeLength   = 8

	maxReferralCodeAttempts = 5
)

func randomReferralCode() (string, error) {
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	code := make([]byte, referralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
