package pairing

import (
	"crypto/rand"
)

// pairingChars is the 32-character alphabet used for pairing codes. Ambiguous
// characters (I, O, 0, 1) are excluded since codes are typed on a till
// keypad. The alphabet length divides 256, so masking a random byte yields a
// uniform draw with no modulo bias.
const (
	pairingChars      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	DefaultCodeLength = 8
	codeMaxRetries    = 5
)

type CodeAvailabilityChecker interface {
	ExistsByPendingCode(code string) (bool, error)
}

// GenerateCode draws a random pairing code and retries on collision with any
// outstanding code of a pending device.
func GenerateCode(length int, checker CodeAvailabilityChecker) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	for i := 0; i < codeMaxRetries; i++ {
		code, err := generateRandomCode(length)
		if err != nil {
			return "", err
		}

		exists, err := checker.ExistsByPendingCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrCodeCollision
}

func generateRandomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = pairingChars[int(b)&(len(pairingChars)-1)]
	}
	return string(buf), nil
}
