package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "tillpoint/internal/api/context"
	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/pkg/errors"
	"tillpoint/internal/platform/auth"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondDomainError maps engine sentinel errors onto the HTTP taxonomy.
// Anything unrecognized is a storage failure and surfaces as 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, tenancy.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
	case stderrors.Is(err, tenancy.ErrLocationNotFound), stderrors.Is(err, pairing.ErrLocationNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Location not found", nil)
	case stderrors.Is(err, tenancy.ErrForbidden):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
	case stderrors.Is(err, tenancy.ErrInvalidLicenseKey):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid license key", nil)
	case stderrors.Is(err, pairing.ErrDeviceNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Device not found", nil)
	case stderrors.Is(err, pairing.ErrCodeNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Pairing code not found", nil)
	case stderrors.Is(err, pairing.ErrCodeExpired):
		errors.WriteError(w, http.StatusGone, errors.ErrCodeGone, "Pairing code expired", nil)
	case stderrors.Is(err, pairing.ErrInvalidDeviceType):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid device type", nil)
	case stderrors.Is(err, pairing.ErrCodeCollision):
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Could not allocate a pairing code, retry", nil)
	case stderrors.Is(err, pairing.ErrUnauthorized):
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid device credentials", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal error", nil)
	}
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func paramFrom(r *http.Request, name string) string {
	ps, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return ps.ByName(name)
}

func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
