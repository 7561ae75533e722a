package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/roster"
)

type rosterRepository struct {
	db *sqlx.DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *sqlx.DB) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo rosterRepository) CreateDepartment(ctx context.Context, name string) (roster.Department, error) {
	var dept roster.Department
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id, name`, name,
	).StructScan(&dept)
	if err != nil {
		if isUniqueViolation(err) {
			return roster.Department{}, roster.ErrDepartmentExists
		}
		return roster.Department{}, errors.Wrap(err, "inserting department")
	}
	return dept, nil
}

func (repo rosterRepository) QueryDepartments(ctx context.Context) ([]roster.Department, error) {
	depts := make([]roster.Department, 0)
	err := repo.db.SelectContext(ctx, &depts, `SELECT id, name FROM departments ORDER BY name`)
	return depts, errors.Wrap(err, "querying departments")
}

func (repo rosterRepository) QuerySections(ctx context.Context, departmentID int, className string) ([]string, error) {
	sections := make([]string, 0)
	err := repo.db.SelectContext(ctx, &sections,
		`SELECT DISTINCT section FROM students WHERE department_id = $1 AND class_name = $2 ORDER BY section`,
		departmentID, className,
	)
	return sections, errors.Wrap(err, "querying sections")
}

func (repo rosterRepository) QueryRoster(ctx context.Context, scope core.Scope) ([]roster.Student, error) {
	students := make([]roster.Student, 0)
	err := repo.db.SelectContext(ctx, &students,
		`SELECT student_id, prn, name, department_id, class_name, section, is_active
		   FROM students
		  WHERE department_id = $1 AND class_name = $2 AND section = $3 AND is_active
		  ORDER BY prn`,
		scope.DepartmentID, scope.ClassName, scope.Section,
	)
	return students, errors.Wrap(err, "querying roster")
}

func (repo rosterRepository) UpsertStudents(ctx context.Context, students []roster.Student) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range students {
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO students (student_id, prn, name, department_id, class_name, section, is_active)
			 VALUES (:student_id, :prn, :name, :department_id, :class_name, :section, :is_active)
			 ON CONFLICT (student_id) DO UPDATE
			     SET prn = EXCLUDED.prn, name = EXCLUDED.name,
			         department_id = EXCLUDED.department_id, class_name = EXCLUDED.class_name,
			         section = EXCLUDED.section, is_active = EXCLUDED.is_active`,
			s,
		)
		if err != nil {
			return errors.Wrapf(err, "upserting student %s", s.StudentID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing students upsert")
}

func (repo rosterRepository) DeleteAllStudents(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM students`)
	return errors.Wrap(err, "deleting students")
}
