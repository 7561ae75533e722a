package course

import (
	"io"

	"github.com/nileshsabnis10/attendance/core"
)

// course import column mapping
const (
	colCourseCode = "course_code"
	colCourseName = "course_name"
	colFacultyID  = "assigned_faculty_id"
)

// ParseCoursesCSV maps an uploaded CSV to Course rows stamped with the
// caller's scope. The whole file is rejected on any duplicate course_code.
func ParseCoursesCSV(r io.Reader, scope core.Scope) ([]Course, error) {
	rows, err := core.ReadCSVRows(r, colCourseCode, colCourseName, colFacultyID)
	if err != nil {
		return nil, err
	}
	if err = core.CheckDuplicateIDs(rows, colCourseCode); err != nil {
		return nil, err
	}

	courses := make([]Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, Course{
			Key:               Key{CourseCode: row[colCourseCode], Scope: scope},
			CourseName:        row[colCourseName],
			AssignedFacultyID: row[colFacultyID],
		})
	}
	return courses, nil
}

// CoursesTemplateCSV is the downloadable import template.
func CoursesTemplateCSV() []byte {
	return core.TemplateCSV(
		[]string{colCourseCode, colCourseName, colFacultyID},
		[]string{"CS101", "Intro to Code", "F001"},
	)
}
