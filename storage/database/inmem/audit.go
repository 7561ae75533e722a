package inmemdb

import (
	"context"

	"github.com/nileshsabnis10/attendance/core/audit"
)

type auditRepository struct {
	db *DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) InsertEntry(ctx context.Context, entry audit.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.auditLog = append(repo.db.auditLog, entry)
	return nil
}

// Entries is a test helper returning a copy of everything logged so far.
func (repo *auditRepository) Entries() []audit.Entry {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]audit.Entry(nil), repo.db.auditLog...)
}
