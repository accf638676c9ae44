package audit

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Entry struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	UserID         string                 `json:"user_id"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	IPAddress      string                 `json:"ip_address"`
	UserAgent      string                 `json:"user_agent"`
	CreatedAt      int64                  `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes an audit entry asynchronously; the request path never blocks
// on the audit table.
func (l *Logger) Record(e Entry) {
	e.ID = "audit_" + uuid.NewString()
	e.CreatedAt = time.Now().Unix()

	metaJSON, _ := json.Marshal(e.Metadata)

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.OrganizationID, e.UserID, e.Action, e.ResourceType, e.ResourceID,
			string(metaJSON), e.IPAddress, e.UserAgent, e.CreatedAt)
		if err != nil {
			log.Error().Err(err).Str("action", e.Action).Msg("failed to write audit log")
		}
	}()
}
