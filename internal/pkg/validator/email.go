package validator

import (
	"errors"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if len(email) > 254 {
		return errors.New("email too long")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	if strings.Count(email, "@") != 1 {
		return errors.New("invalid email format")
	}
	return nil
}
