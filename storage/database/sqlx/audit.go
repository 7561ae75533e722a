package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core/audit"
)

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) InsertEntry(ctx context.Context, entry audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return errors.Wrap(err, "marshaling audit details")
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, user_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.UserID, entry.Action, details, entry.CreatedAt,
	)
	return errors.Wrap(err, "inserting audit entry")
}
