package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nileshsabnis10/attendance/core"
)

// Audited actions.
const (
	ActionLockAttendance   = "LOCK_ATTENDANCE"
	ActionUnlockAttendance = "UNLOCK_ATTENDANCE"
	ActionBulkImport       = "BULK_IMPORT"
	ActionDangerZoneDelete = "DANGER_ZONE_DELETE"
)

type Entry struct {
	ID        string                 `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Action    string                 `json:"action" db:"action"`
	Details   map[string]interface{} `json:"details" db:"details"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"` // UTC
}

type Repository interface {
	InsertEntry(ctx context.Context, entry Entry) error
}

// Logger records who did what. Writes are best-effort: a failed audit insert
// is reported to the app logger and never fails the audited operation.
type Logger struct {
	repo Repository
	log  core.Logger
}

func NewLogger(repo Repository, log core.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

func (l *Logger) Log(ctx context.Context, userID, action string, details map[string]interface{}) {
	if l == nil || l.repo == nil {
		return
	}
	entry := Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.InsertEntry(ctx, entry); err != nil && l.log != nil {
		l.log.Error("failed to write audit entry", err)
	}
}
