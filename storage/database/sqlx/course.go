package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) GetCourse(ctx context.Context, key course.Key) (course.Course, error) {
	var crs course.Course
	err := repo.db.GetContext(ctx, &crs,
		`SELECT course_code, department_id, class_name, section, course_name, assigned_faculty_id
		   FROM courses
		  WHERE course_code = $1 AND department_id = $2 AND class_name = $3 AND section = $4`,
		key.CourseCode, key.DepartmentID, key.ClassName, key.Section,
	)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, scope core.Scope) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := repo.db.SelectContext(ctx, &courses,
		`SELECT course_code, department_id, class_name, section, course_name, assigned_faculty_id
		   FROM courses
		  WHERE department_id = $1 AND class_name = $2 AND section = $3
		  ORDER BY course_code`,
		scope.DepartmentID, scope.ClassName, scope.Section,
	)
	return courses, errors.Wrap(err, "querying courses")
}

func (repo courseRepository) QueryAssignedCourses(ctx context.Context, facultyID string) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := repo.db.SelectContext(ctx, &courses,
		`SELECT c.course_code, c.department_id, c.class_name, c.section,
		        c.course_name, c.assigned_faculty_id, d.name AS department_name
		   FROM courses c
		   JOIN departments d ON d.id = c.department_id
		  WHERE c.assigned_faculty_id = $1
		  ORDER BY c.course_code, c.section`,
		facultyID,
	)
	return courses, errors.Wrap(err, "querying assigned courses")
}

func (repo courseRepository) UpsertCourses(ctx context.Context, courses []course.Course) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, crs := range courses {
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO courses (course_code, department_id, class_name, section, course_name, assigned_faculty_id)
			 VALUES (:course_code, :department_id, :class_name, :section, :course_name, :assigned_faculty_id)
			 ON CONFLICT (course_code, department_id, class_name, section) DO UPDATE
			     SET course_name = EXCLUDED.course_name,
			         assigned_faculty_id = EXCLUDED.assigned_faculty_id`,
			crs,
		)
		if err != nil {
			return errors.Wrapf(err, "upserting course %s", crs.CourseCode)
		}
	}
	return errors.Wrap(tx.Commit(), "committing courses upsert")
}

func (repo courseRepository) DeleteAllCourses(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM courses`)
	return errors.Wrap(err, "deleting courses")
}

func (repo courseRepository) QueryEnrollment(ctx context.Context, key course.Key) ([]string, error) {
	ids := make([]string, 0)
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT student_id
		   FROM student_course_enrollment
		  WHERE course_code = $1 AND department_id = $2 AND class_name = $3 AND section = $4
		  ORDER BY student_id`,
		key.CourseCode, key.DepartmentID, key.ClassName, key.Section,
	)
	return ids, errors.Wrap(err, "querying enrollment")
}

func (repo courseRepository) ReplaceEnrollment(ctx context.Context, key course.Key, studentIDs []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM student_course_enrollment
		  WHERE course_code = $1 AND department_id = $2 AND class_name = $3 AND section = $4`,
		key.CourseCode, key.DepartmentID, key.ClassName, key.Section,
	)
	if err != nil {
		return errors.Wrap(err, "clearing enrollment")
	}

	for _, id := range studentIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO student_course_enrollment (student_id, course_code, department_id, class_name, section)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, key.CourseCode, key.DepartmentID, key.ClassName, key.Section,
		)
		if err != nil {
			return errors.Wrapf(err, "inserting enrollment for %s", id)
		}
	}
	return errors.Wrap(tx.Commit(), "committing enrollment replace")
}
