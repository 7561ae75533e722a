package roster

import (
	"io"

	"github.com/nileshsabnis10/attendance/core"
)

// student import column mapping
const (
	colStudentID = "student_id"
	colPRN       = "prn"
	colName      = "name"
)

// ParseStudentsCSV maps an uploaded CSV to Student rows stamped with the
// caller's scope. The whole file is rejected when any student_id is duplicated.
func ParseStudentsCSV(r io.Reader, scope core.Scope) ([]Student, error) {
	rows, err := core.ReadCSVRows(r, colStudentID, colPRN, colName)
	if err != nil {
		return nil, err
	}
	if err = core.CheckDuplicateIDs(rows, colStudentID); err != nil {
		return nil, err
	}

	students := make([]Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, Student{
			StudentID:    row[colStudentID],
			PRN:          row[colPRN],
			Name:         row[colName],
			DepartmentID: scope.DepartmentID,
			ClassName:    scope.ClassName,
			Section:      scope.Section,
			IsActive:     true,
		})
	}
	return students, nil
}

// StudentsTemplateCSV is the downloadable import template.
func StudentsTemplateCSV() []byte {
	return core.TemplateCSV(
		[]string{colStudentID, colPRN, colName},
		[]string{"S001", "1", "John Doe"},
	)
}
