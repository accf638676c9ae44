package handlers

import (
	"encoding/json"
	"net/http"

	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/pkg/errors"
	"tillpoint/internal/platform/audit"
	"tillpoint/internal/platform/models"
)

type OrgHandler struct {
	tenancy  *tenancy.Service
	auditLog *audit.Logger
}

func NewOrgHandler(tenancySvc *tenancy.Service, auditLog *audit.Logger) *OrgHandler {
	return &OrgHandler{tenancy: tenancySvc, auditLog: auditLog}
}

type CreateOrgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name is required", nil)
		return
	}

	org, err := h.tenancy.CreateOrganization(claims.UserID, req.Name, req.Description)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.auditLog.Record(audit.Entry{
		OrganizationID: org.ID,
		UserID:         claims.UserID,
		Action:         "organization.created",
		ResourceType:   "organization",
		ResourceID:     org.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})

	writeJSON(w, http.StatusCreated, org)
}

type ListOrgsResponse struct {
	Organizations []*models.OrganizationWithRole `json:"organizations"`
}

func (h *OrgHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	orgs, err := h.tenancy.ListForUser(claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if orgs == nil {
		orgs = []*models.OrganizationWithRole{}
	}

	writeJSON(w, http.StatusOK, ListOrgsResponse{Organizations: orgs})
}
