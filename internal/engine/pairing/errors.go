package pairing

import "errors"

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrDeviceNotFound   = errors.New("device not found")

	// ErrCodeNotFound covers absent, already consumed, and superseded
	// pairing codes. Losing a redemption race surfaces as this error.
	ErrCodeNotFound = errors.New("pairing code not found")

	ErrCodeExpired = errors.New("pairing code expired")

	ErrCodeCollision = errors.New("failed to allocate a unique pairing code")

	ErrInvalidDeviceType = errors.New("invalid device type")

	// ErrUnauthorized means device credentials did not resolve to a
	// registered device.
	ErrUnauthorized = errors.New("invalid device credentials")
)
