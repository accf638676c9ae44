package pairing

import (
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/platform/auth"
	"tillpoint/internal/platform/config"
	"tillpoint/internal/platform/models"
)

// Authorizer resolves a caller's role within an organization. Satisfied by
// tenancy.Service.
type Authorizer interface {
	Authorize(callerID, orgID string, required tenancy.Role) error
}

// Registry owns the device lifecycle: pending -> registered | inactive.
type Registry struct {
	repo  *Repository
	authz Authorizer
	cfg   config.PairingConfig
}

func NewRegistry(repo *Repository, authz Authorizer, cfg config.PairingConfig) *Registry {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 15 * time.Minute
	}
	return &Registry{repo: repo, authz: authz, cfg: cfg}
}

// Register creates a pending device slot with a fresh pairing code. Requires
// at least manager on the organization owning the location.
func (reg *Registry) Register(locationID, callerID, deviceName, deviceType string) (*models.Device, error) {
	orgID, err := reg.repo.GetLocationOrg(locationID)
	if err != nil {
		return nil, err
	}
	if orgID == "" {
		return nil, ErrLocationNotFound
	}

	if err := reg.authz.Authorize(callerID, orgID, tenancy.RoleManager); err != nil {
		return nil, err
	}

	if !models.ValidDeviceType(deviceType) {
		return nil, ErrInvalidDeviceType
	}

	code, err := GenerateCode(reg.cfg.CodeLength, reg.repo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(reg.cfg.CodeTTL).Unix()
	nowUnix := now.Unix()

	dev := &models.Device{
		ID:               "dev_" + uuid.NewString(),
		LocationID:       locationID,
		Name:             deviceName,
		Type:             deviceType,
		Status:           models.DeviceStatusPending,
		PairingCode:      &code,
		PairingExpiresAt: &expiresAt,
		CreatedAt:        nowUnix,
		UpdatedAt:        nowUnix,
	}

	if err := reg.repo.Create(dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// Redeem consumes a pairing code, binds the hardware id, and returns the
// device together with its plaintext credential. Exactly one concurrent
// redeemer succeeds; losers see ErrCodeNotFound. An expired code lazily
// moves the device to inactive and yields ErrCodeExpired.
func (reg *Registry) Redeem(code, hardwareID string) (*models.Device, string, error) {
	token, hash, err := auth.GenerateDeviceToken()
	if err != nil {
		return nil, "", err
	}

	now := time.Now().Unix()
	won, err := reg.repo.Redeem(code, hardwareID, hash, now)
	if err != nil {
		return nil, "", err
	}

	if !won {
		dev, err := reg.repo.GetPendingByCode(code)
		if err != nil {
			return nil, "", err
		}
		if dev == nil {
			return nil, "", ErrCodeNotFound
		}
		if dev.PairingExpiresAt != nil && *dev.PairingExpiresAt <= now {
			if err := reg.repo.MarkInactive(dev.ID, now); err != nil {
				return nil, "", err
			}
			return nil, "", ErrCodeExpired
		}
		return nil, "", ErrCodeNotFound
	}

	dev, err := reg.repo.GetRegisteredByTokenHash(hash)
	if err != nil {
		return nil, "", err
	}
	if dev == nil {
		return nil, "", ErrDeviceNotFound
	}
	return dev, token, nil
}

func (reg *Registry) ListForUser(callerID string) ([]*models.Device, error) {
	return reg.repo.ListForUser(callerID)
}

// LocationOrg reports the organization owning a location, "" when the
// location does not exist.
func (reg *Registry) LocationOrg(locationID string) (string, error) {
	return reg.repo.GetLocationOrg(locationID)
}

// AuthenticateDevice resolves device credentials to a registered device.
func (reg *Registry) AuthenticateDevice(token string) (*models.Device, error) {
	if !auth.IsDeviceToken(token) {
		return nil, ErrUnauthorized
	}
	dev, err := reg.repo.GetRegisteredByTokenHash(auth.HashDeviceToken(token))
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrUnauthorized
	}
	return dev, nil
}

func (reg *Registry) Heartbeat(deviceID string) error {
	return reg.repo.TouchLastActive(deviceID, time.Now().Unix())
}

// Deactivate moves a device to inactive. Idempotent: deactivating an already
// inactive device is not an error.
func (reg *Registry) Deactivate(deviceID, callerID string) (*models.Device, error) {
	dev, err := reg.repo.GetByID(deviceID)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrDeviceNotFound
	}

	orgID, err := reg.repo.GetLocationOrg(dev.LocationID)
	if err != nil {
		return nil, err
	}
	if err := reg.authz.Authorize(callerID, orgID, tenancy.RoleManager); err != nil {
		return nil, err
	}

	if err := reg.repo.MarkInactive(dev.ID, time.Now().Unix()); err != nil {
		return nil, err
	}
	return reg.repo.GetByID(deviceID)
}

// PairingQR renders the outstanding pairing code of a pending device as a
// PNG for on-screen scanning.
func (reg *Registry) PairingQR(deviceID, callerID string, size int) ([]byte, error) {
	dev, err := reg.repo.GetByID(deviceID)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrDeviceNotFound
	}

	orgID, err := reg.repo.GetLocationOrg(dev.LocationID)
	if err != nil {
		return nil, err
	}
	if err := reg.authz.Authorize(callerID, orgID, tenancy.RoleManager); err != nil {
		return nil, err
	}

	if dev.Status != models.DeviceStatusPending || dev.PairingCode == nil {
		return nil, ErrCodeNotFound
	}

	if size == 0 {
		size = 512
	}
	qr, err := qrcode.New(*dev.PairingCode, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return qr.PNG(size)
}

// SweepExpired transitions pending devices past their pairing window to
// inactive. Redemption checks expiry itself, so the sweep is reclamation,
// not correctness.
func (reg *Registry) SweepExpired() (int64, error) {
	return reg.repo.SweepExpired(time.Now().Unix())
}
