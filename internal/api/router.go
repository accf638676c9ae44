package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "tillpoint/internal/api/context"
	"tillpoint/internal/api/handlers"
	"tillpoint/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	OrgHandler       *handlers.OrgHandler
	LocationHandler  *handlers.LocationHandler
	DeviceHandler    *handlers.DeviceHandler
	WebhookHandler   *handlers.WebhookHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	DeviceMiddleware *middleware.DeviceMiddleware
	RateLimiter      *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	deviceMid := deps.DeviceMiddleware
	rl := deps.RateLimiter

	router.GET("/api/v1/health", wrap(deps.HealthHandler.Check))

	// Authentication routes
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.GET("/api/v1/users/me",
		chain(deps.AuthHandler.Me, authMid.Handle, rl.Limit("api_read")))

	// Organization management
	router.POST("/api/v1/organizations",
		chain(deps.OrgHandler.Create, authMid.Handle, rl.Limit("api_write")))
	router.GET("/api/v1/organizations",
		chain(deps.OrgHandler.ListMine, authMid.Handle, rl.Limit("api_read")))

	// Locations and licensing
	router.POST("/api/v1/organizations/:org_id/locations",
		chain(deps.LocationHandler.Add, authMid.Handle, rl.Limit("api_write")))
	router.GET("/api/v1/organizations/:org_id/locations",
		chain(deps.LocationHandler.List, authMid.Handle, rl.Limit("api_read")))
	router.PUT("/api/v1/organizations/:org_id/locations/:location_id/license",
		chain(deps.LocationHandler.SetLicense, authMid.Handle, rl.Limit("api_write")))
	router.POST("/api/v1/organizations/:org_id/locations/:location_id/license/expire",
		chain(deps.LocationHandler.ExpireLicense, authMid.Handle, rl.Limit("api_write")))

	// Webhook management
	router.POST("/api/v1/organizations/:org_id/webhooks",
		chain(deps.WebhookHandler.Create, authMid.Handle, rl.Limit("api_write")))
	router.GET("/api/v1/organizations/:org_id/webhooks",
		chain(deps.WebhookHandler.List, authMid.Handle, rl.Limit("api_read")))
	router.DELETE("/api/v1/organizations/:org_id/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, authMid.Handle, rl.Limit("api_write")))

	// Device lifecycle
	router.GET("/api/v1/devices",
		chain(deps.DeviceHandler.List, authMid.Handle, rl.Limit("api_read")))
	router.POST("/api/v1/locations/:location_id/devices",
		chain(deps.DeviceHandler.Register, authMid.Handle, rl.Limit("api_write")))
	router.POST("/api/v1/devices/:device_id/deactivate",
		chain(deps.DeviceHandler.Deactivate, authMid.Handle, rl.Limit("api_write")))
	router.GET("/api/v1/devices/:device_id/qr",
		chain(deps.DeviceHandler.QR, authMid.Handle, rl.Limit("api_read")))

	// Pairing endpoints carry no user token. Redeem is keyed per client IP by
	// the tight "pair" bucket; heartbeat authenticates with the device token.
	router.POST("/api/v1/pairing/redeem",
		chain(deps.DeviceHandler.Pair, rl.Limit("pair")))
	router.POST("/api/v1/pairing/heartbeat",
		chain(deps.DeviceHandler.Heartbeat, deviceMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
