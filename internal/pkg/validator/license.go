package validator

import (
	"errors"
	"strings"
)

// License keys look like TILL-7Q3MF-9ZK2P-X4WNI: a fixed prefix and three
// groups of five characters from the key alphabet. The final character is a
// check character, the index sum of all preceding key characters mod 36.
const licenseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	licensePrefix     = "TILL"
	licenseGroupCount = 3
	licenseGroupLen   = 5
)

func ValidateLicenseKey(key string) error {
	parts := strings.Split(key, "-")
	if len(parts) != licenseGroupCount+1 {
		return errors.New("invalid license key format")
	}
	if parts[0] != licensePrefix {
		return errors.New("invalid license key prefix")
	}

	var body string
	for _, group := range parts[1:] {
		if len(group) != licenseGroupLen {
			return errors.New("invalid license key format")
		}
		body += group
	}

	sum := 0
	for _, c := range body {
		idx := strings.IndexRune(licenseChars, c)
		if idx < 0 {
			return errors.New("invalid character in license key")
		}
		sum += idx
	}

	// The check character participates in the sum, so subtract it back out.
	last := strings.IndexByte(licenseChars, body[len(body)-1])
	if (sum-last)%36 != last {
		return errors.New("license key checksum mismatch")
	}

	return nil
}

// MakeLicenseKey appends the check character to a 14-character key body and
// formats it. Used by provisioning tooling and tests.
func MakeLicenseKey(body string) (string, error) {
	if len(body) != licenseGroupCount*licenseGroupLen-1 {
		return "", errors.New("license key body must be 14 characters")
	}

	sum := 0
	for _, c := range body {
		idx := strings.IndexRune(licenseChars, c)
		if idx < 0 {
			return "", errors.New("invalid character in license key body")
		}
		sum += idx
	}

	full := body + string(licenseChars[sum%36])
	return licensePrefix + "-" + full[0:5] + "-" + full[5:10] + "-" + full[10:15], nil
}
