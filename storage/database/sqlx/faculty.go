package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nileshsabnis10/attendance/core/faculty"
)

type facultyRepository struct {
	db *sqlx.DB
}

var _ faculty.Repository = (*facultyRepository)(nil) // interface compliance check

func NewFacultyRepository(db *sqlx.DB) *facultyRepository {
	return &facultyRepository{db: db}
}

type facultyRow struct {
	FacultyID   string      `db:"faculty_id"`
	Name        string      `db:"name"`
	Email       null.String `db:"email"`
	PhoneNumber string      `db:"phone_number"`
	PINHash     []byte      `db:"pin_hash"`
}

func (repo facultyRepository) toRow(fac faculty.Faculty) facultyRow {
	return facultyRow{
		FacultyID:   fac.FacultyID,
		Name:        fac.Name,
		Email:       null.NewString(fac.Email, fac.Email != ""),
		PhoneNumber: fac.PhoneNumber,
		PINHash:     fac.PINHash,
	}
}

func (repo facultyRepository) fromRow(row facultyRow) faculty.Faculty {
	return faculty.Faculty{
		FacultyID:   row.FacultyID,
		Name:        row.Name,
		Email:       row.Email.String,
		PhoneNumber: row.PhoneNumber,
		PINHash:     row.PINHash,
	}
}

func (repo facultyRepository) GetFaculty(ctx context.Context, facultyID string) (faculty.Faculty, error) {
	var row facultyRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT faculty_id, name, email, phone_number, pin_hash FROM faculty WHERE faculty_id = $1`,
		facultyID,
	)
	if err != nil {
		return faculty.Faculty{}, trapNoRowsErr(err, faculty.ErrNotFound, "getting faculty")
	}
	return repo.fromRow(row), nil
}

func (repo facultyRepository) QueryAllFaculty(ctx context.Context) ([]faculty.Faculty, error) {
	rows := make([]facultyRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT faculty_id, name, email, phone_number, pin_hash FROM faculty ORDER BY faculty_id`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying faculty")
	}
	members := make([]faculty.Faculty, 0, len(rows))
	for _, row := range rows {
		members = append(members, repo.fromRow(row))
	}
	return members, nil
}

func (repo facultyRepository) UpsertFaculty(ctx context.Context, members []faculty.Faculty) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, fac := range members {
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO faculty (faculty_id, name, email, phone_number, pin_hash)
			 VALUES (:faculty_id, :name, :email, :phone_number, :pin_hash)
			 ON CONFLICT (faculty_id) DO UPDATE
			     SET name = EXCLUDED.name, email = EXCLUDED.email,
			         phone_number = EXCLUDED.phone_number, pin_hash = EXCLUDED.pin_hash`,
			repo.toRow(fac),
		)
		if err != nil {
			return errors.Wrapf(err, "upserting faculty %s", fac.FacultyID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing faculty upsert")
}

func (repo facultyRepository) DeleteAllFaculty(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM faculty`)
	return errors.Wrap(err, "deleting faculty")
}
