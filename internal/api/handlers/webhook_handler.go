package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/pkg/errors"
	"tillpoint/internal/platform/models"
	"tillpoint/internal/platform/repositories"
)

type WebhookHandler struct {
	repo    *repositories.WebhookRepository
	tenancy *tenancy.Service
}

func NewWebhookHandler(repo *repositories.WebhookRepository, tenancySvc *tenancy.Service) *WebhookHandler {
	return &WebhookHandler{repo: repo, tenancy: tenancySvc}
}

type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")

	if err := h.tenancy.Authorize(claims.UserID, orgID, tenancy.RoleManager); err != nil {
		respondDomainError(w, err)
		return
	}

	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "url must be an http(s) endpoint", nil)
		return
	}
	if len(req.Events) == 0 {
		req.Events = []string{"*"}
	}
	if req.Secret == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "secret is required", nil)
		return
	}

	hook := &models.Webhook{
		ID:             "wh_" + uuid.NewString(),
		OrganizationID: orgID,
		URL:            req.URL,
		Events:         req.Events,
		Secret:         req.Secret,
		Status:         "active",
		CreatedAt:      time.Now().Unix(),
	}
	if err := h.repo.Create(hook); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create webhook", nil)
		return
	}

	writeJSON(w, http.StatusCreated, hook)
}

type ListWebhooksResponse struct {
	Webhooks []*models.Webhook `json:"webhooks"`
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")

	if err := h.tenancy.Authorize(claims.UserID, orgID, tenancy.RoleManager); err != nil {
		respondDomainError(w, err)
		return
	}

	hooks, err := h.repo.ListForOrg(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if hooks == nil {
		hooks = []*models.Webhook{}
	}

	writeJSON(w, http.StatusOK, ListWebhooksResponse{Webhooks: hooks})
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "org_id")
	webhookID := paramFrom(r, "webhook_id")

	if err := h.tenancy.Authorize(claims.UserID, orgID, tenancy.RoleManager); err != nil {
		respondDomainError(w, err)
		return
	}

	deleted, err := h.repo.Delete(webhookID, orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete webhook", nil)
		return
	}
	if !deleted {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
