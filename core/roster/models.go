package roster

import (
	"fmt"
	"strings"

	"github.com/nileshsabnis10/attendance/core"
)

// ClassNames are the class choices a scope may reference.
var ClassNames = []string{"First Year", "Second Year", "Third Year", "Fourth Year"}

type Department struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Student struct {
	StudentID    string `json:"student_id" db:"student_id"`
	PRN          string `json:"prn" db:"prn"`
	Name         string `json:"name" db:"name"`
	DepartmentID int    `json:"department_id" db:"department_id"`
	ClassName    string `json:"class_name" db:"class_name"`
	Section      string `json:"section" db:"section"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

func (s Student) Scope() core.Scope {
	return core.Scope{DepartmentID: s.DepartmentID, ClassName: s.ClassName, Section: s.Section}
}

// placeholderStudent is the inactive row that pins a section into existence
// before any real student is imported into it. Sections are derived from the
// students table; there is no standalone section entity.
func placeholderStudent(scope core.Scope) Student {
	id := fmt.Sprintf("%s-%s_PLACEHOLDER",
		strings.ToUpper(strings.ReplaceAll(scope.ClassName, " ", "_")),
		strings.ToUpper(scope.Section),
	)
	return Student{
		StudentID:    id,
		PRN:          id,
		Name:         "Admin Placeholder",
		DepartmentID: scope.DepartmentID,
		ClassName:    scope.ClassName,
		Section:      scope.Section,
		IsActive:     false,
	}
}
