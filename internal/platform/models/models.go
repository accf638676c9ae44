package models

type User struct {
	ID           string `json:"id"`
	FullName     string `json:"fullname"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Organization struct {
	ID            string `json:"organization_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	CreatedBy     string `json:"created_by"`
	WebhookSecret string `json:"-"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// Membership is one row of the user<->organization relation. One row per
// (organization, user) pair.
type Membership struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`   // owner, manager, staff
	Status         string `json:"status"` // active, disabled, invited
	CreatedAt      int64  `json:"created_at"`
}

// OrganizationWithRole annotates an organization with the querying user's
// membership, for the "my organizations" listing.
type OrganizationWithRole struct {
	Organization
	Role   string `json:"role"`
	Status string `json:"status"`
}

type Location struct {
	ID             string  `json:"location_id"`
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Timezone       string  `json:"timezone"`
	LicenseKey     *string `json:"license_key,omitempty"`
	LicenseStatus  string  `json:"license_status"` // pending, active, expired
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
}

const (
	LicenseStatusPending = "pending"
	LicenseStatusActive  = "active"
	LicenseStatusExpired = "expired"
)

type Device struct {
	ID               string  `json:"device_id"`
	LocationID       string  `json:"location_id"`
	Name             string  `json:"device_name"`
	Type             string  `json:"device_type"`   // POS, KitchenDisplay, CustomerDisplay
	Status           string  `json:"device_status"` // pending, registered, inactive
	PairingCode      *string `json:"pairing_code,omitempty"`
	PairingExpiresAt *int64  `json:"pairing_expires_at,omitempty"`
	HardwareID       *string `json:"hardware_id,omitempty"`
	TokenHash        string  `json:"-"`
	RegisteredAt     *int64  `json:"registered_at,omitempty"`
	LastActiveAt     *int64  `json:"last_active_at,omitempty"`
	CreatedAt        int64   `json:"created_at"`
	UpdatedAt        int64   `json:"updated_at"`
}

const (
	DeviceStatusPending    = "pending"
	DeviceStatusRegistered = "registered"
	DeviceStatusInactive   = "inactive"
)

const (
	DeviceTypePOS             = "POS"
	DeviceTypeKitchenDisplay  = "KitchenDisplay"
	DeviceTypeCustomerDisplay = "CustomerDisplay"
)

func ValidDeviceType(t string) bool {
	switch t {
	case DeviceTypePOS, DeviceTypeKitchenDisplay, DeviceTypeCustomerDisplay:
		return true
	}
	return false
}

type Webhook struct {
	ID              string   `json:"id"`
	OrganizationID  string   `json:"organization_id"`
	URL             string   `json:"url"`
	Events          []string `json:"events"` // JSON array in DB
	Secret          string   `json:"-"`
	Status          string   `json:"status"` // active, paused, failed
	RetryCount      int      `json:"retry_count"`
	LastTriggeredAt *int64   `json:"last_triggered_at,omitempty"`
	LastError       string   `json:"last_error,omitempty"`
	CreatedAt       int64    `json:"created_at"`
}

type WebhookEvent struct {
	ID             string      `json:"id"`
	Event          string      `json:"event"`
	Timestamp      int64       `json:"timestamp"`
	OrganizationID string      `json:"organization_id"`
	Data           interface{} `json:"data"`
}
