package tenancy

import "errors"

var (
	// ErrNotFound means the referenced organization does not exist. Absent
	// ids get NotFound; existing-but-unauthorized resources get Forbidden,
	// uniformly across all operations.
	ErrNotFound = errors.New("organization not found")

	ErrLocationNotFound = errors.New("location not found")

	// ErrForbidden covers both "not a member" and "role too low".
	ErrForbidden = errors.New("insufficient role")

	ErrInvalidLicenseKey = errors.New("invalid license key")
)
