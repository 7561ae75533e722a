package course

import (
	"fmt"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/roster"
)

// Key is the composite identity of a course: the code is only unique within
// its (department, class, section) scope.
type Key struct {
	CourseCode string `json:"course_code" db:"course_code"`
	core.Scope
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", k.CourseCode, k.DepartmentID, k.ClassName, k.Section)
}

type Course struct {
	Key
	CourseName        string `json:"course_name" db:"course_name"`
	AssignedFacultyID string `json:"assigned_faculty_id" db:"assigned_faculty_id"`
	// DepartmentName is a read-side join extra for the faculty dashboard.
	DepartmentName string `json:"department_name,omitempty" db:"department_name"`
}

// EffectiveRoster resolves the students attendance is recorded for: a
// non-empty override restricts the roster to its members (override IDs absent
// from the roster are stale references and are ignored, with no error); an
// empty override means every active student in the roster is enrolled.
func EffectiveRoster(override []string, students []roster.Student) []roster.Student {
	if len(override) == 0 {
		return students
	}
	enrolled := make(map[string]bool, len(override))
	for _, id := range override {
		enrolled[id] = true
	}
	effective := make([]roster.Student, 0, len(override))
	for _, s := range students {
		if enrolled[s.StudentID] {
			effective = append(effective, s)
		}
	}
	return effective
}
