package pairing

import (
	"database/sql"

	"tillpoint/internal/platform/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const deviceColumns = `
	id, location_id, device_name, device_type, device_status,
	pairing_code, pairing_expires_at, hardware_id, device_token_hash,
	registered_at, last_active_at, created_at, updated_at`

func (r *Repository) Create(dev *models.Device) error {
	_, err := r.db.Exec(`
		INSERT INTO devices (
			id, location_id, device_name, device_type, device_status,
			pairing_code, pairing_expires_at, device_token_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, '', ?, ?)
	`, dev.ID, dev.LocationID, dev.Name, dev.Type, dev.Status,
		dev.PairingCode, dev.PairingExpiresAt, dev.CreatedAt, dev.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*models.Device, error) {
	row := r.db.QueryRow(`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	return scanDevice(row)
}

// GetPendingByCode looks up a pending device holding the given code,
// regardless of expiry. Used after a failed redeem to tell expired codes
// apart from absent or consumed ones.
func (r *Repository) GetPendingByCode(code string) (*models.Device, error) {
	row := r.db.QueryRow(`
		SELECT `+deviceColumns+` FROM devices
		WHERE pairing_code = ? AND device_status = 'pending'
	`, code)
	return scanDevice(row)
}

func (r *Repository) GetRegisteredByTokenHash(hash string) (*models.Device, error) {
	row := r.db.QueryRow(`
		SELECT `+deviceColumns+` FROM devices
		WHERE device_token_hash = ? AND device_status = 'registered'
	`, hash)
	return scanDevice(row)
}

func (r *Repository) ExistsByPendingCode(code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM devices WHERE pairing_code = ? AND device_status = 'pending')
	`, code).Scan(&exists)
	return exists, err
}

// GetLocationOrg resolves the owning organization of a location. Returns ""
// when the location does not exist.
func (r *Repository) GetLocationOrg(locationID string) (string, error) {
	var orgID string
	err := r.db.QueryRow(`SELECT organization_id FROM locations WHERE id = ?`, locationID).Scan(&orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return orgID, nil
}

// ListForUser returns devices of every location belonging to an organization
// where the user holds an active membership.
func (r *Repository) ListForUser(userID string) ([]*models.Device, error) {
	rows, err := r.db.Query(`
		SELECT d.id, d.location_id, d.device_name, d.device_type, d.device_status,
		       d.pairing_code, d.pairing_expires_at, d.hardware_id, d.device_token_hash,
		       d.registered_at, d.last_active_at, d.created_at, d.updated_at
		FROM devices d
		JOIN locations l ON l.id = d.location_id
		JOIN organization_users m ON m.organization_id = l.organization_id
		WHERE m.user_id = ? AND m.status = 'active'
		ORDER BY d.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}

// Redeem is the single atomic check-and-set of the pairing protocol: the
// guarded UPDATE only matches a pending device holding the unexpired code,
// so under concurrent redemption exactly one caller observes one affected
// row. Winners get the code cleared and the device bound in the same
// statement.
func (r *Repository) Redeem(code, hardwareID, tokenHash string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE devices SET
			device_status = 'registered',
			hardware_id = ?,
			device_token_hash = ?,
			pairing_code = NULL,
			pairing_expires_at = NULL,
			registered_at = ?,
			last_active_at = ?,
			updated_at = ?
		WHERE pairing_code = ? AND device_status = 'pending' AND pairing_expires_at > ?
	`, hardwareID, tokenHash, now, now, now, code, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkInactive moves a device to inactive and destroys any outstanding
// pairing code. Unconditional, so repeated calls are no-ops.
func (r *Repository) MarkInactive(id string, now int64) error {
	_, err := r.db.Exec(`
		UPDATE devices SET
			device_status = 'inactive',
			pairing_code = NULL,
			pairing_expires_at = NULL,
			updated_at = ?
		WHERE id = ?
	`, now, id)
	return err
}

func (r *Repository) TouchLastActive(id string, now int64) error {
	_, err := r.db.Exec(`UPDATE devices SET last_active_at = ? WHERE id = ?`, now, id)
	return err
}

// SweepExpired reclaims pending devices whose pairing window has lapsed.
func (r *Repository) SweepExpired(now int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE devices SET
			device_status = 'inactive',
			pairing_code = NULL,
			pairing_expires_at = NULL,
			updated_at = ?
		WHERE device_status = 'pending' AND pairing_expires_at <= ?
	`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanDevice(s interface {
	Scan(dest ...interface{}) error
}) (*models.Device, error) {
	dev := &models.Device{}
	var pairingCode, hardwareID sql.NullString
	var pairingExpiresAt, registeredAt, lastActiveAt sql.NullInt64

	err := s.Scan(
		&dev.ID,
		&dev.LocationID,
		&dev.Name,
		&dev.Type,
		&dev.Status,
		&pairingCode,
		&pairingExpiresAt,
		&hardwareID,
		&dev.TokenHash,
		&registeredAt,
		&lastActiveAt,
		&dev.CreatedAt,
		&dev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if pairingCode.Valid {
		val := pairingCode.String
		dev.PairingCode = &val
	}
	if hardwareID.Valid {
		val := hardwareID.String
		dev.HardwareID = &val
	}
	if pairingExpiresAt.Valid {
		val := pairingExpiresAt.Int64
		dev.PairingExpiresAt = &val
	}
	if registeredAt.Valid {
		val := registeredAt.Int64
		dev.RegisteredAt = &val
	}
	if lastActiveAt.Valid {
		val := lastActiveAt.Int64
		dev.LastActiveAt = &val
	}

	return dev, nil
}
