package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "tillpoint/internal/api/context"
	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/engine/webhooks"
	"tillpoint/internal/pkg/errors"
	"tillpoint/internal/platform/audit"
	"tillpoint/internal/platform/models"
)

type DeviceHandler struct {
	registry   *pairing.Registry
	auditLog   *audit.Logger
	dispatcher *webhooks.Dispatcher
}

func NewDeviceHandler(registry *pairing.Registry, auditLog *audit.Logger, dispatcher *webhooks.Dispatcher) *DeviceHandler {
	return &DeviceHandler{registry: registry, auditLog: auditLog, dispatcher: dispatcher}
}

type ListDevicesResponse struct {
	Devices []*models.Device `json:"devices"`
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	devices, err := h.registry.ListForUser(claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if devices == nil {
		devices = []*models.Device{}
	}

	writeJSON(w, http.StatusOK, ListDevicesResponse{Devices: devices})
}

type RegisterDeviceRequest struct {
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	locationID := paramFrom(r, "location_id")

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.DeviceName == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "device_name is required", nil)
		return
	}

	dev, err := h.registry.Register(locationID, claims.UserID, req.DeviceName, req.DeviceType)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	orgID, _ := h.registry.LocationOrg(locationID)
	h.auditLog.Record(audit.Entry{
		OrganizationID: orgID,
		UserID:         claims.UserID,
		Action:         "device.registered",
		ResourceType:   "device",
		ResourceID:     dev.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	h.dispatcher.Dispatch(webhooks.EventDeviceRegistered, orgID, dev)

	writeJSON(w, http.StatusCreated, dev)
}

type PairRequest struct {
	PairingCode string `json:"pairing_code"`
	HardwareID  string `json:"hardware_id"`
}

type PairResponse struct {
	DeviceID    string `json:"device_id"`
	DeviceName  string `json:"device_name"`
	DeviceToken string `json:"device_token"`
}

// Pair redeems a pairing code for device credentials. No bearer token: the
// code itself is the proof of possession.
func (h *DeviceHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.PairingCode == "" || req.HardwareID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "pairing_code and hardware_id are required", nil)
		return
	}

	dev, token, err := h.registry.Redeem(req.PairingCode, req.HardwareID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	orgID, _ := h.registry.LocationOrg(dev.LocationID)
	h.auditLog.Record(audit.Entry{
		OrganizationID: orgID,
		Action:         "device.paired",
		ResourceType:   "device",
		ResourceID:     dev.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	h.dispatcher.Dispatch(webhooks.EventDevicePaired, orgID, dev)

	writeJSON(w, http.StatusOK, PairResponse{
		DeviceID:    dev.ID,
		DeviceName:  dev.Name,
		DeviceToken: token,
	})
}

// Heartbeat is authenticated by the device middleware, not a user JWT.
func (h *DeviceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	dev, _ := r.Context().Value(apiContext.Device).(*models.Device)
	if dev == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Device authentication required", nil)
		return
	}

	if err := h.registry.Heartbeat(dev.ID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DeviceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	deviceID := paramFrom(r, "device_id")

	dev, err := h.registry.Deactivate(deviceID, claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	orgID, _ := h.registry.LocationOrg(dev.LocationID)
	h.auditLog.Record(audit.Entry{
		OrganizationID: orgID,
		UserID:         claims.UserID,
		Action:         "device.deactivated",
		ResourceType:   "device",
		ResourceID:     dev.ID,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	h.dispatcher.Dispatch(webhooks.EventDeviceDeactivated, orgID, dev)

	writeJSON(w, http.StatusOK, dev)
}

func (h *DeviceHandler) QR(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	deviceID := paramFrom(r, "device_id")

	png, err := h.registry.PairingQR(deviceID, claims.UserID, 0)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
