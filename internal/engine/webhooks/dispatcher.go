package webhooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tillpoint/internal/platform/models"
	"tillpoint/internal/platform/repositories"
)

// Event types emitted by the device and license lifecycle.
const (
	EventDeviceRegistered  = "device.registered"
	EventDevicePaired      = "device.paired"
	EventDeviceDeactivated = "device.deactivated"
	EventLicenseUpdated    = "license.updated"
)

type Dispatcher struct {
	repo    *repositories.WebhookRepository
	timeout time.Duration
}

func NewDispatcher(repo *repositories.WebhookRepository, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{repo: repo, timeout: timeout}
}

// Dispatch fans an event out to every subscribed endpoint of the
// organization. Delivery is fire-and-forget; failures are recorded on the
// webhook row for the retry worker.
func (d *Dispatcher) Dispatch(eventType, orgID string, data interface{}) {
	hooks, err := d.repo.ListForEvent(orgID, eventType)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to load webhooks")
		return
	}

	event := &models.WebhookEvent{
		ID:             fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		Event:          eventType,
		Timestamp:      time.Now().Unix(),
		OrganizationID: orgID,
		Data:           data,
	}

	for _, hook := range hooks {
		go d.deliver(hook, event)
	}
}

func (d *Dispatcher) deliver(hook *models.Webhook, event *models.WebhookEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewBuffer(payload))
	if err != nil {
		d.repo.MarkFailed(hook.ID, err.Error())
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tillpoint-Signature", Sign(hook.Secret, payload))
	req.Header.Set("X-Tillpoint-Event", event.Event)
	req.Header.Set("X-Tillpoint-Delivery", event.ID)

	client := &http.Client{Timeout: d.timeout}
	resp, err := client.Do(req)

	if err != nil || resp.StatusCode >= 400 {
		var errStr string
		if err != nil {
			errStr = err.Error()
		} else {
			errStr = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		d.repo.MarkFailed(hook.ID, errStr)
		log.Warn().Str("webhook_id", hook.ID).Str("error", errStr).Msg("webhook delivery failed")
	} else {
		d.repo.MarkDelivered(hook.ID, time.Now().Unix())
	}

	if resp != nil {
		resp.Body.Close()
	}
}
