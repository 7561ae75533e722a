package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) CourseWiseSummary(ctx context.Context, scope core.Scope, monthKey string) ([]report.CourseSummary, error) {
	summaries := make([]report.CourseSummary, 0)
	err := repo.db.SelectContext(ctx, &summaries,
		`SELECT c.course_name,
		        ROUND(AVG(CASE WHEN a.lectures_held > 0
		                       THEN a.attended * 100.0 / a.lectures_held
		                       ELSE 0 END)::numeric, 2) AS average_attendance
		   FROM attendance a
		   JOIN courses c
		     ON c.course_code = a.course_code AND c.department_id = a.department_id
		    AND c.class_name = a.class_name AND c.section = a.section
		  WHERE a.department_id = $1 AND a.class_name = $2 AND a.section = $3
		    AND a.month_yyyy_mm = $4
		  GROUP BY c.course_name
		  ORDER BY c.course_name`,
		scope.DepartmentID, scope.ClassName, scope.Section, monthKey,
	)
	return summaries, errors.Wrap(err, "querying course-wise summary")
}

func (repo reportRepository) FullClassHistory(ctx context.Context, scope core.Scope) ([]report.HistoryRow, error) {
	rows := make([]report.HistoryRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT s.name, a.month_yyyy_mm,
		        ROUND(CASE WHEN SUM(a.lectures_held) > 0
		                   THEN SUM(a.attended) * 100.0 / SUM(a.lectures_held)
		                   ELSE 0 END::numeric, 2) AS attendance_percent
		   FROM attendance a
		   JOIN students s ON s.student_id = a.student_id
		  WHERE a.department_id = $1 AND a.class_name = $2 AND a.section = $3
		    AND s.is_active
		  GROUP BY s.name, s.prn, a.month_yyyy_mm
		  ORDER BY a.month_yyyy_mm, s.prn`,
		scope.DepartmentID, scope.ClassName, scope.Section,
	)
	return rows, errors.Wrap(err, "querying class history")
}

func (repo reportRepository) DetailedMonthlySummary(ctx context.Context, scope core.Scope, monthKey string) ([]report.SummaryRow, error) {
	rows := make([]report.SummaryRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT a.student_id, s.prn, s.name, c.course_name, a.lectures_held, a.attended
		   FROM attendance a
		   JOIN students s ON s.student_id = a.student_id
		   JOIN courses c
		     ON c.course_code = a.course_code AND c.department_id = a.department_id
		    AND c.class_name = a.class_name AND c.section = a.section
		  WHERE a.department_id = $1 AND a.class_name = $2 AND a.section = $3
		    AND a.month_yyyy_mm = $4 AND s.is_active
		  ORDER BY s.prn, c.course_name`,
		scope.DepartmentID, scope.ClassName, scope.Section, monthKey,
	)
	return rows, errors.Wrap(err, "querying detailed monthly summary")
}
