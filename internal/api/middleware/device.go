package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "tillpoint/internal/api/context"
	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/pkg/errors"
)

// DeviceMiddleware authenticates paired devices by their dev_ bearer token
// instead of a user JWT.
type DeviceMiddleware struct {
	registry *pairing.Registry
}

func NewDeviceMiddleware(registry *pairing.Registry) *DeviceMiddleware {
	return &DeviceMiddleware{registry: registry}
}

func (m *DeviceMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		device, err := m.registry.AuthenticateDevice(parts[1])
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or revoked device token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Device, device)
		next(w, r.WithContext(ctx))
	}
}
