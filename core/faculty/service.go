package faculty

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("faculty not found")
)

type (
	Repository interface {
		GetFaculty(ctx context.Context, facultyID string) (Faculty, error)
		QueryAllFaculty(ctx context.Context) ([]Faculty, error)
		UpsertFaculty(ctx context.Context, members []Faculty) error
		DeleteAllFaculty(ctx context.Context) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies a faculty member's 4-digit PIN. Both an unknown ID and
// a wrong PIN surface as ErrNotFound so callers reveal nothing to attackers.
func (svc *Service) Authenticate(ctx context.Context, facultyID, pin string) (Faculty, error) {
	fac, err := svc.repo.GetFaculty(ctx, facultyID)
	if err != nil {
		return Faculty{}, err
	}
	if err = fac.CheckPIN(pin); err != nil {
		return Faculty{}, ErrNotFound
	}
	return fac, nil
}

func (svc *Service) GetByID(ctx context.Context, facultyID string) (Faculty, error) {
	return svc.repo.GetFaculty(ctx, facultyID)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Faculty, error) {
	return svc.repo.QueryAllFaculty(ctx)
}

func (svc *Service) Import(ctx context.Context, members []Faculty) error {
	if len(members) == 0 {
		return nil
	}
	return pkgerrors.Wrap(svc.repo.UpsertFaculty(ctx, members), "upserting faculty")
}

// Wipe permanently deletes every faculty row. Irreversible; callers gate it
// behind the danger-zone password and a confirmation token.
func (svc *Service) Wipe(ctx context.Context) error {
	return pkgerrors.Wrap(svc.repo.DeleteAllFaculty(ctx), "deleting faculty")
}
