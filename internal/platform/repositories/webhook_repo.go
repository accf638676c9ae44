package repositories

import (
	"database/sql"
	"encoding/json"

	"tillpoint/internal/platform/models"
)

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(hook *models.Webhook) error {
	eventsJSON, _ := json.Marshal(hook.Events)
	_, err := r.db.Exec(`
		INSERT INTO webhooks (id, organization_id, url, events, secret, status, retry_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, hook.ID, hook.OrganizationID, hook.URL, string(eventsJSON), hook.Secret, hook.Status, hook.RetryCount, hook.CreatedAt)
	return err
}

func (r *WebhookRepository) GetByID(id string) (*models.Webhook, error) {
	row := r.db.QueryRow(`
		SELECT id, organization_id, url, events, secret, status, retry_count, last_triggered_at, last_error, created_at
		FROM webhooks WHERE id = ?
	`, id)
	return scanWebhook(row)
}

// ListForEvent returns active webhooks of an organization subscribed to the
// given event type.
func (r *WebhookRepository) ListForEvent(orgID, event string) ([]*models.Webhook, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, url, events, secret, status, retry_count, last_triggered_at, last_error, created_at
		FROM webhooks WHERE organization_id = ? AND status = 'active'
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []*models.Webhook
	for rows.Next() {
		hook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		for _, e := range hook.Events {
			if e == event || e == "*" {
				hooks = append(hooks, hook)
				break
			}
		}
	}
	return hooks, rows.Err()
}

func (r *WebhookRepository) ListForOrg(orgID string) ([]*models.Webhook, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, url, events, secret, status, retry_count, last_triggered_at, last_error, created_at
		FROM webhooks WHERE organization_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []*models.Webhook
	for rows.Next() {
		hook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}
	return hooks, rows.Err()
}

func (r *WebhookRepository) Delete(id, orgID string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM webhooks WHERE id = ? AND organization_id = ?`, id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *WebhookRepository) MarkDelivered(id string, at int64) error {
	_, err := r.db.Exec(`
		UPDATE webhooks SET last_triggered_at = ?, retry_count = 0, last_error = '' WHERE id = ?
	`, at, id)
	return err
}

// DisableExceeded moves webhooks past the retry budget to 'failed' so the
// dispatcher stops attempting them. Returns the number of webhooks disabled.
func (r *WebhookRepository) DisableExceeded(maxRetries int) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE webhooks SET status = 'failed' WHERE status = 'active' AND retry_count >= ?
	`, maxRetries)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *WebhookRepository) MarkFailed(id, lastError string) error {
	_, err := r.db.Exec(`
		UPDATE webhooks SET retry_count = retry_count + 1, last_error = ? WHERE id = ?
	`, lastError, id)
	return err
}

func scanWebhook(s interface {
	Scan(dest ...interface{}) error
}) (*models.Webhook, error) {
	hook := &models.Webhook{}
	var eventsRaw string
	var lastTriggered sql.NullInt64
	var lastError sql.NullString

	err := s.Scan(&hook.ID, &hook.OrganizationID, &hook.URL, &eventsRaw, &hook.Secret,
		&hook.Status, &hook.RetryCount, &lastTriggered, &lastError, &hook.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastTriggered.Valid {
		val := lastTriggered.Int64
		hook.LastTriggeredAt = &val
	}
	if lastError.Valid {
		hook.LastError = lastError.String
	}
	if eventsRaw != "" {
		json.Unmarshal([]byte(eventsRaw), &hook.Events)
	}

	return hook, nil
}
