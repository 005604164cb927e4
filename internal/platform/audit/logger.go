package audit

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Entry struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    int64                  `json:"created_at"`
}

// Logger records mutations to the audit_logs table. Writes are
// fire-and-forget: a failed audit insert must never fail the request that
// triggered it.
type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Record(userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit metadata marshal failed")
	}

	entry := &Entry{
		ID:           "audit_" + uuid.NewString(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().Unix(),
	}

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.CreatedAt)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit insert failed")
		}
	}()
}
