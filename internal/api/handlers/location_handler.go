package handlers

import (
	"encoding/json"
	"net/http"

	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/engine/webhooks"
	"tillpoint/internal/pkg/errors"
	"tillpoint/internal/platform/audit"
	"tillpoint/internal/platform/models"
)

type LocationHandler struct {
	tenancy    *tenancy.Service
	auditLog   *audit.Logger
	dispatcher *webhooks.Dispatcher
}

func NewLocationHandler(tenancySvc *tenancy.Service, auditLog *audit.Logger, dispatcher *webhooks.Dispatcher) *LocationHandler {
	return &LocationHandler{tenancy: tenancySvc, auditLog: auditLog, dispatcher: dispatcher}
}

type AddLocationRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

func (h *LocationHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")

	var req AddLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name is required", nil)
		return
	}

	loc, err := h.tenancy.AddLocation(orgID, claims.UserID, req.Name, req.Address, req.Timezone)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.auditLog.Record(audit.Entry{
		OrganizationID: orgID,
		UserID:         claims.UserID,
		Action:         "location.created",
		ResourceType:   "location",
		ResourceID:     loc.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})

	writeJSON(w, http.StatusCreated, loc)
}

type ListLocationsResponse struct {
	Locations []*models.Location `json:"locations"`
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")

	locations, err := h.tenancy.ListLocations(orgID, claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if locations == nil {
		locations = []*models.Location{}
	}

	writeJSON(w, http.StatusOK, ListLocationsResponse{Locations: locations})
}

type SetLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

func (h *LocationHandler) SetLicense(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")
	locationID := paramFrom(r, "location_id")

	var req SetLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	loc, err := h.tenancy.SetLicense(orgID, locationID, claims.UserID, req.LicenseKey)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.auditLog.Record(audit.Entry{
		OrganizationID: orgID,
		UserID:         claims.UserID,
		Action:         "license.updated",
		ResourceType:   "location",
		ResourceID:     loc.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	h.dispatcher.Dispatch(webhooks.EventLicenseUpdated, orgID, loc)

	writeJSON(w, http.StatusOK, loc)
}

func (h *LocationHandler) ExpireLicense(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")
	locationID := paramFrom(r, "location_id")

	loc, err := h.tenancy.ExpireLicense(orgID, locationID, claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.auditLog.Record(audit.Entry{
		OrganizationID: orgID,
		UserID:         claims.UserID,
		Action:         "license.expired",
		ResourceType:   "location",
		ResourceID:     loc.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	h.dispatcher.Dispatch(webhooks.EventLicenseUpdated, orgID, loc)

	writeJSON(w, http.StatusOK, loc)
}
