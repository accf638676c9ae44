package tenancy

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"tillpoint/internal/pkg/validator"
	"tillpoint/internal/platform/models"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Authorize resolves the caller's role within the organization and checks it
// against the required role. ErrNotFound when the organization does not
// exist; ErrForbidden when the caller has no active membership or the role
// rank is too low.
func (s *Service) Authorize(callerID, orgID string, required Role) error {
	org, err := s.repo.GetOrganization(orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrNotFound
	}

	m, err := s.repo.GetMembership(orgID, callerID)
	if err != nil {
		return err
	}
	if m == nil || m.Status != MembershipStatusActive {
		return ErrForbidden
	}
	if !Role(m.Role).AtLeast(required) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) CreateOrganization(userID, name, description string) (*models.Organization, error) {
	now := time.Now().Unix()
	org := &models.Organization{
		ID:            "org_" + uuid.NewString(),
		Name:          name,
		Description:   description,
		CreatedBy:     userID,
		WebhookSecret: newWebhookSecret(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	membership := &models.Membership{
		ID:             "mem_" + uuid.NewString(),
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           string(RoleOwner),
		Status:         MembershipStatusActive,
		CreatedAt:      now,
	}

	if err := s.repo.CreateOrganization(org, membership); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) ListForUser(userID string) ([]*models.OrganizationWithRole, error) {
	return s.repo.ListOrganizationsForUser(userID)
}

func (s *Service) AddLocation(orgID, callerID, name, address, timezone string) (*models.Location, error) {
	if err := s.Authorize(callerID, orgID, RoleManager); err != nil {
		return nil, err
	}

	if timezone == "" {
		timezone = "UTC"
	}

	now := time.Now().Unix()
	loc := &models.Location{
		ID:             "loc_" + uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		Address:        address,
		Timezone:       timezone,
		LicenseStatus:  models.LicenseStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateLocation(loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *Service) ListLocations(orgID, callerID string) ([]*models.Location, error) {
	if err := s.Authorize(callerID, orgID, RoleStaff); err != nil {
		return nil, err
	}
	return s.repo.ListLocations(orgID)
}

// SetLicense assigns a license key to a location and marks the license
// active. The location must belong to the given organization.
func (s *Service) SetLicense(orgID, locationID, callerID, licenseKey string) (*models.Location, error) {
	if err := s.Authorize(callerID, orgID, RoleManager); err != nil {
		return nil, err
	}

	loc, err := s.locationInOrg(orgID, locationID)
	if err != nil {
		return nil, err
	}

	if err := validator.ValidateLicenseKey(licenseKey); err != nil {
		return nil, ErrInvalidLicenseKey
	}

	now := time.Now().Unix()
	if err := s.repo.SetLicense(locationID, licenseKey, models.LicenseStatusActive, now); err != nil {
		return nil, err
	}

	loc.LicenseKey = &licenseKey
	loc.LicenseStatus = models.LicenseStatusActive
	loc.UpdatedAt = now
	return loc, nil
}

// ExpireLicense records an external license expiry event.
func (s *Service) ExpireLicense(orgID, locationID, callerID string) (*models.Location, error) {
	if err := s.Authorize(callerID, orgID, RoleManager); err != nil {
		return nil, err
	}

	loc, err := s.locationInOrg(orgID, locationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if err := s.repo.SetLicenseStatus(locationID, models.LicenseStatusExpired, now); err != nil {
		return nil, err
	}

	loc.LicenseStatus = models.LicenseStatusExpired
	loc.UpdatedAt = now
	return loc, nil
}

func (s *Service) locationInOrg(orgID, locationID string) (*models.Location, error) {
	loc, err := s.repo.GetLocation(locationID)
	if err != nil {
		return nil, err
	}
	// A location id from another organization is treated as absent rather
	// than leaking that the id exists elsewhere.
	if loc == nil || loc.OrganizationID != orgID {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}

func newWebhookSecret() string {
	raw := make([]byte, 24)
	rand.Read(raw)
	return "whsec_" + hex.EncodeToString(raw)
}
