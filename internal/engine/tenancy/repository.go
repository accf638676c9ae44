package tenancy

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

// CreateOrganization inserts the organization and the creator's owner
// membership in one transaction.
func (r *Repository) CreateOrganization(org *models.Organization, membership *models.Membership) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO organizations (id, name, description, created_by, webhook_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Name, org.Description, org.CreatedBy, org.WebhookSecret, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO organization_users (id, organization_id, user_id, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, membership.ID, membership.OrganizationID, membership.UserID, membership.Role, membership.Status, membership.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) GetOrganization(id string) (*models.Organization, error) {
	org := &models.Organization{}
	err := r.db.QueryRow(`
		SELECT id, name, description, created_by, webhook_secret, created_at, updated_at
		FROM organizations WHERE id = ?
	`, id).Scan(&org.ID, &org.Name, &org.Description, &org.CreatedBy, &org.WebhookSecret, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *Repository) ListOrganizationsForUser(userID string) ([]*models.OrganizationWithRole, error) {
	rows, err := r.db.Query(`
		SELECT o.id, o.name, o.description, o.created_by, o.webhook_secret, o.created_at, o.updated_at,
		       m.role, m.status
		FROM organizations o
		JOIN organization_users m ON m.organization_id = o.id
		WHERE m.user_id = ?
		ORDER BY o.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.OrganizationWithRole
	for rows.Next() {
		org := &models.OrganizationWithRole{}
		err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedBy, &org.WebhookSecret,
			&org.CreatedAt, &org.UpdatedAt, &org.Role, &org.Status)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *Repository) GetMembership(orgID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, user_id, role, status, created_at
		FROM organization_users WHERE organization_id = ? AND user_id = ?
	`, orgID, userID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *Repository) CreateLocation(loc *models.Location) error {
	_, err := r.db.Exec(`
		INSERT INTO locations (id, organization_id, name, address, timezone, license_key, license_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, loc.ID, loc.OrganizationID, loc.Name, loc.Address, loc.Timezone, loc.LicenseKey, loc.LicenseStatus, loc.CreatedAt, loc.UpdatedAt)
	return err
}

func (r *Repository) GetLocation(id string) (*models.Location, error) {
	row := r.db.QueryRow(`
		SELECT id, organization_id, name, address, timezone, license_key, license_status, created_at, updated_at
		FROM locations WHERE id = ?
	`, id)
	return scanLocation(row)
}

func (r *Repository) ListLocations(orgID string) ([]*models.Location, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, name, address, timezone, license_key, license_status, created_at, updated_at
		FROM locations WHERE organization_id = ?
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (r *Repository) SetLicense(locationID, licenseKey, status string, updatedAt int64) error {
	_, err := r.db.Exec(`
		UPDATE locations SET license_key = ?, license_status = ?, updated_at = ? WHERE id = ?
	`, licenseKey, status, updatedAt, locationID)
	return err
}

func (r *Repository) SetLicenseStatus(locationID, status string, updatedAt int64) error {
	_, err := r.db.Exec(`
		UPDATE locations SET license_status = ?, updated_at = ? WHERE id = ?
	`, status, updatedAt, locationID)
	return err
}

func scanLocation(s interface {
	Scan(dest ...interface{}) error
}) (*models.Location, error) {
	loc := &models.Location{}
	var licenseKey sql.NullString

	err := s.Scan(&loc.ID, &loc.OrganizationID, &loc.Name, &loc.Address, &loc.Timezone,
		&licenseKey, &loc.LicenseStatus, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if licenseKey.Valid {
		val := licenseKey.String
		loc.LicenseKey = &val
	}
	return loc, nil
}
