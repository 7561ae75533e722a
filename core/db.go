package core

import (
	"context"
	"database/sql"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Scope is the (department, class, section) key every roster, course and
// attendance query is partitioned by. It is threaded explicitly through calls;
// there is no ambient "selected class" state.
type Scope struct {
	DepartmentID int    `json:"department_id" query:"department_id" db:"department_id" validate:"required"`
	ClassName    string `json:"class_name" query:"class_name" db:"class_name" validate:"required"`
	Section      string `json:"section" query:"section" db:"section" validate:"required"`
}
