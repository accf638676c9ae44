package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tillpoint/internal/api/handlers"
	"tillpoint/internal/api/middleware"
	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/engine/webhooks"
	"tillpoint/internal/platform/audit"
	"tillpoint/internal/platform/auth"
	"tillpoint/internal/platform/config"
	"tillpoint/internal/platform/repositories"
)

func setupTestServer(t *testing.T) *httptest.Server {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A :memory: database exists per connection, so pin the pool to one.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		fullname TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_by TEXT NOT NULL,
		webhook_secret TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE organization_users (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at INTEGER NOT NULL,
		UNIQUE(organization_id, user_id)
	);
	CREATE TABLE locations (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		license_key TEXT,
		license_status TEXT NOT NULL DEFAULT 'pending',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE devices (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL,
		device_name TEXT NOT NULL,
		device_type TEXT NOT NULL,
		device_status TEXT NOT NULL DEFAULT 'pending',
		pairing_code TEXT,
		pairing_expires_at INTEGER,
		hardware_id TEXT,
		device_token_hash TEXT NOT NULL DEFAULT '',
		registered_at INTEGER,
		last_active_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX idx_devices_pairing_code ON devices(pairing_code) WHERE pairing_code IS NOT NULL;
	CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		url TEXT NOT NULL,
		events TEXT NOT NULL DEFAULT '[]',
		secret TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_triggered_at INTEGER,
		last_error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		organization_id TEXT,
		user_id TEXT,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT,
		metadata TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	auditLog := audit.NewLogger(db)
	tenancySvc := tenancy.NewService(tenancy.NewRepository(db))
	registry := pairing.NewRegistry(pairing.NewRepository(db), tenancySvc, config.PairingConfig{
		CodeLength: 8,
		CodeTTL:    15 * time.Minute,
	})
	dispatcher := webhooks.NewDispatcher(webhookRepo, time.Second)

	router := NewRouter(&Dependencies{
		AuthHandler:      handlers.NewAuthHandler(userRepo, tokenSvc),
		OrgHandler:       handlers.NewOrgHandler(tenancySvc, auditLog),
		LocationHandler:  handlers.NewLocationHandler(tenancySvc, auditLog, dispatcher),
		DeviceHandler:    handlers.NewDeviceHandler(registry, auditLog, dispatcher),
		WebhookHandler:   handlers.NewWebhookHandler(webhookRepo, tenancySvc),
		HealthHandler:    handlers.NewHealthHandler(db),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc),
		DeviceMiddleware: middleware.NewDeviceMiddleware(registry),
		RateLimiter: middleware.NewRateLimiter(config.RateLimitConfig{
			PairPerMinute:     100,
			APIReadPerMinute:  100,
			APIWritePerMinute: 100,
		}),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// Walks the full onboarding flow: account, organization, location, device
// registration, and code redemption from the device side.
func TestAPIPairingFlow(t *testing.T) {
	server := setupTestServer(t)
	base := server.URL + "/api/v1"

	resp, body := doJSON(t, "POST", base+"/auth/signup", "", map[string]string{
		"fullname": "Dana Owner",
		"email":    "dana@bistro.example",
		"password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Signup: expected 201, got %d", resp.StatusCode)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("Signup: expected access_token")
	}

	resp, body = doJSON(t, "POST", base+"/organizations", token, map[string]string{
		"name": "Bistro Group",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create org: expected 201, got %d", resp.StatusCode)
	}
	orgID, _ := body["organization_id"].(string)
	if orgID == "" {
		t.Fatal("Create org: expected organization_id")
	}

	resp, body = doJSON(t, "POST", fmt.Sprintf("%s/organizations/%s/locations", base, orgID), token, map[string]string{
		"name":     "Main Street",
		"timezone": "Europe/Berlin",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Add location: expected 201, got %d", resp.StatusCode)
	}
	locationID, _ := body["location_id"].(string)
	if locationID == "" {
		t.Fatal("Add location: expected location_id")
	}

	resp, body = doJSON(t, "POST", fmt.Sprintf("%s/locations/%s/devices", base, locationID), token, map[string]string{
		"device_name": "Front Register",
		"device_type": "POS",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Register device: expected 201, got %d", resp.StatusCode)
	}
	deviceID, _ := body["device_id"].(string)
	code, _ := body["pairing_code"].(string)
	if deviceID == "" || code == "" {
		t.Fatalf("Register device: expected device_id and pairing_code, got %v", body)
	}
	if status := body["device_status"]; status != "pending" {
		t.Errorf("Register device: expected pending, got %v", status)
	}

	// The device redeems its code without any user credentials.
	resp, body = doJSON(t, "POST", base+"/pairing/redeem", "", map[string]string{
		"pairing_code": code,
		"hardware_id":  "SN-12345",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Redeem: expected 200, got %d", resp.StatusCode)
	}
	deviceToken, _ := body["device_token"].(string)
	if deviceToken == "" {
		t.Fatal("Redeem: expected device_token")
	}

	// A consumed code is indistinguishable from one that never existed.
	resp, _ = doJSON(t, "POST", base+"/pairing/redeem", "", map[string]string{
		"pairing_code": code,
		"hardware_id":  "SN-99999",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Second redeem: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", base+"/pairing/heartbeat", deviceToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Heartbeat: expected 204, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, "GET", base+"/devices", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("List devices: expected 200, got %d", resp.StatusCode)
	}
	devices, _ := body["devices"].([]interface{})
	if len(devices) != 1 {
		t.Fatalf("List devices: expected 1 device, got %d", len(devices))
	}
	dev, _ := devices[0].(map[string]interface{})
	if dev["device_status"] != "registered" {
		t.Errorf("List devices: expected registered, got %v", dev["device_status"])
	}

	resp, body = doJSON(t, "POST", fmt.Sprintf("%s/devices/%s/deactivate", base, deviceID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Deactivate: expected 200, got %d", resp.StatusCode)
	}
	if body["device_status"] != "inactive" {
		t.Errorf("Deactivate: expected inactive, got %v", body["device_status"])
	}

	// A deactivated device's token no longer authenticates.
	resp, _ = doJSON(t, "POST", base+"/pairing/heartbeat", deviceToken, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Heartbeat after deactivate: expected 401, got %d", resp.StatusCode)
	}
}

func TestAPILicenseFlow(t *testing.T) {
	server := setupTestServer(t)
	base := server.URL + "/api/v1"

	_, body := doJSON(t, "POST", base+"/auth/signup", "", map[string]string{
		"fullname": "Pat Manager",
		"email":    "pat@bistro.example",
		"password": "correcthorse",
	})
	token, _ := body["access_token"].(string)

	_, body = doJSON(t, "POST", base+"/organizations", token, map[string]string{"name": "Cafe Chain"})
	orgID, _ := body["organization_id"].(string)

	_, body = doJSON(t, "POST", fmt.Sprintf("%s/organizations/%s/locations", base, orgID), token, map[string]string{
		"name": "Harbor Cafe",
	})
	locationID, _ := body["location_id"].(string)

	licenseURL := fmt.Sprintf("%s/organizations/%s/locations/%s/license", base, orgID, locationID)

	resp, _ := doJSON(t, "PUT", licenseURL, token, map[string]string{
		"license_key": "NOT-A-LICENSE",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Bad license key: expected 400, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, "PUT", licenseURL, token, map[string]string{
		"license_key": "TILL-7Q3MF-9ZK2P-X4WNI",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Set license: expected 200, got %d", resp.StatusCode)
	}
	if body["license_status"] != "active" {
		t.Errorf("Set license: expected active, got %v", body["license_status"])
	}

	resp, body = doJSON(t, "POST", licenseURL+"/expire", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expire license: expected 200, got %d", resp.StatusCode)
	}
	if body["license_status"] != "expired" {
		t.Errorf("Expire license: expected expired, got %v", body["license_status"])
	}
}

func TestAPIAuthorizationBoundaries(t *testing.T) {
	server := setupTestServer(t)
	base := server.URL + "/api/v1"

	_, body := doJSON(t, "POST", base+"/auth/signup", "", map[string]string{
		"fullname": "Owner One",
		"email":    "one@example.com",
		"password": "password-one",
	})
	ownerToken, _ := body["access_token"].(string)

	_, body = doJSON(t, "POST", base+"/organizations", ownerToken, map[string]string{"name": "Org One"})
	orgID, _ := body["organization_id"].(string)

	_, body = doJSON(t, "POST", base+"/auth/signup", "", map[string]string{
		"fullname": "Outsider",
		"email":    "two@example.com",
		"password": "password-two",
	})
	outsiderToken, _ := body["access_token"].(string)

	// Non-members cannot see into the organization.
	resp, _ := doJSON(t, "GET", fmt.Sprintf("%s/organizations/%s/locations", base, orgID), outsiderToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Outsider list locations: expected 403, got %d", resp.StatusCode)
	}

	// Unknown organizations are a 404, not a 403.
	resp, _ = doJSON(t, "GET", base+"/organizations/org_nonexistent/locations", ownerToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Unknown org: expected 404, got %d", resp.StatusCode)
	}

	// No token at all.
	resp, _ = doJSON(t, "GET", base+"/devices", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Missing token: expected 401, got %d", resp.StatusCode)
	}
}

func TestAPIWebhookManagement(t *testing.T) {
	server := setupTestServer(t)
	base := server.URL + "/api/v1"

	_, body := doJSON(t, "POST", base+"/auth/signup", "", map[string]string{
		"fullname": "Hook Admin",
		"email":    "hooks@example.com",
		"password": "webhook-pass",
	})
	token, _ := body["access_token"].(string)

	_, body = doJSON(t, "POST", base+"/organizations", token, map[string]string{"name": "Hooked Org"})
	orgID, _ := body["organization_id"].(string)
	hooksURL := fmt.Sprintf("%s/organizations/%s/webhooks", base, orgID)

	resp, body := doJSON(t, "POST", hooksURL, token, map[string]interface{}{
		"url":    "https://example.com/hook",
		"events": []string{"device.paired"},
		"secret": "s3cret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create webhook: expected 201, got %d", resp.StatusCode)
	}
	hookID, _ := body["id"].(string)

	resp, body = doJSON(t, "GET", hooksURL, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("List webhooks: expected 200, got %d", resp.StatusCode)
	}
	hooks, _ := body["webhooks"].([]interface{})
	if len(hooks) != 1 {
		t.Fatalf("List webhooks: expected 1, got %d", len(hooks))
	}

	resp, _ = doJSON(t, "DELETE", hooksURL+"/"+hookID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Delete webhook: expected 204, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "DELETE", hooksURL+"/"+hookID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Delete missing webhook: expected 404, got %d", resp.StatusCode)
	}
}
