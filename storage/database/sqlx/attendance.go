package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/course"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type attendanceRow struct {
	StudentID    string      `db:"student_id"`
	CourseCode   string      `db:"course_code"`
	DepartmentID int         `db:"department_id"`
	ClassName    string      `db:"class_name"`
	Section      string      `db:"section"`
	MonthKey     string      `db:"month_yyyy_mm"`
	LecturesHeld int         `db:"lectures_held"`
	Attended     int         `db:"attended"`
	Status       string      `db:"status"`
	Remarks      null.String `db:"remarks"`
	UpdatedBy    string      `db:"updated_by_faculty_id"`
	UpdatedAt    null.Time   `db:"updated_at"`
}

func (repo attendanceRepository) toRow(rec attendance.Record) attendanceRow {
	return attendanceRow{
		StudentID:    rec.StudentID,
		CourseCode:   rec.CourseCode,
		DepartmentID: rec.DepartmentID,
		ClassName:    rec.ClassName,
		Section:      rec.Section,
		MonthKey:     rec.MonthKey,
		LecturesHeld: rec.LecturesHeld,
		Attended:     rec.Attended,
		Status:       string(rec.Status),
		Remarks:      null.StringFrom(rec.Remarks),
		UpdatedBy:    rec.UpdatedBy,
		UpdatedAt:    null.TimeFrom(rec.UpdatedAt.UTC()),
	}
}

func (repo attendanceRepository) fromRow(row attendanceRow) attendance.Record {
	return attendance.Record{
		Key: attendance.Key{
			Key: course.Key{
				CourseCode: row.CourseCode,
				Scope:      scopeOf(row.DepartmentID, row.ClassName, row.Section),
			},
			MonthKey: row.MonthKey,
		},
		StudentID:    row.StudentID,
		LecturesHeld: row.LecturesHeld,
		Attended:     row.Attended,
		Status:       attendance.Status(row.Status),
		Remarks:      row.Remarks.String,
		UpdatedBy:    row.UpdatedBy,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, key attendance.Key) ([]attendance.Record, error) {
	rows := make([]attendanceRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT student_id, course_code, department_id, class_name, section, month_yyyy_mm,
		        lectures_held, attended, status, remarks, updated_by_faculty_id, updated_at
		   FROM attendance
		  WHERE course_code = $1 AND department_id = $2 AND class_name = $3 AND section = $4
		    AND month_yyyy_mm = $5
		  ORDER BY student_id`,
		key.CourseCode, key.DepartmentID, key.ClassName, key.Section, key.MonthKey,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.fromRow(row))
	}
	return recs, nil
}

func (repo attendanceRepository) UpsertRecords(ctx context.Context, recs []attendance.Record) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO attendance
			    (student_id, course_code, department_id, class_name, section, month_yyyy_mm,
			     lectures_held, attended, status, remarks, updated_by_faculty_id, updated_at)
			 VALUES
			    (:student_id, :course_code, :department_id, :class_name, :section, :month_yyyy_mm,
			     :lectures_held, :attended, :status, :remarks, :updated_by_faculty_id, :updated_at)
			 ON CONFLICT (student_id, course_code, department_id, class_name, section, month_yyyy_mm)
			 DO UPDATE
			     SET lectures_held = EXCLUDED.lectures_held, attended = EXCLUDED.attended,
			         status = EXCLUDED.status, remarks = EXCLUDED.remarks,
			         updated_by_faculty_id = EXCLUDED.updated_by_faculty_id,
			         updated_at = EXCLUDED.updated_at`,
			repo.toRow(rec),
		)
		if err != nil {
			return errors.Wrapf(err, "upserting attendance for %s", rec.StudentID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing attendance batch")
}

func (repo attendanceRepository) UpdateStatus(ctx context.Context, key attendance.Key, status attendance.Status) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE attendance SET status = $1
		  WHERE course_code = $2 AND department_id = $3 AND class_name = $4 AND section = $5
		    AND month_yyyy_mm = $6`,
		string(status), key.CourseCode, key.DepartmentID, key.ClassName, key.Section, key.MonthKey,
	)
	return errors.Wrap(err, "updating attendance status")
}

func (repo attendanceRepository) QueryGroupStatuses(ctx context.Context, keys []course.Key, monthKeys []string) ([]attendance.GroupStatus, error) {
	if len(keys) == 0 || len(monthKeys) == 0 {
		return []attendance.GroupStatus{}, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(keys)*4+len(monthKeys))
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		n := len(args)
		sb.WriteString(fmt.Sprintf(
			"(course_code = $%d AND department_id = $%d AND class_name = $%d AND section = $%d)",
			n+1, n+2, n+3, n+4,
		))
		args = append(args, key.CourseCode, key.DepartmentID, key.ClassName, key.Section)
	}
	monthPlaceholders := make([]string, 0, len(monthKeys))
	for _, mk := range monthKeys {
		monthPlaceholders = append(monthPlaceholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, mk)
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT course_code, department_id, class_name, section, month_yyyy_mm, status
		   FROM attendance
		  WHERE (%s) AND month_yyyy_mm IN (%s)`,
		sb.String(), strings.Join(monthPlaceholders, ", "),
	)

	statuses := make([]attendance.GroupStatus, 0)
	err := repo.db.SelectContext(ctx, &statuses, query, args...)
	return statuses, errors.Wrap(err, "querying group statuses")
}
