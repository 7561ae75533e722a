// Package inmemdb provides in-memory Repository implementations used by
// tests and local development runs. All tables share one lock so the
// cross-table invariants (enrollment references, report joins) stay
// consistent without transactions.
package inmemdb

import (
	"sync"

	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/audit"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/faculty"
	"github.com/nileshsabnis10/attendance/core/roster"
)

type DB struct {
	mutex sync.RWMutex

	deptPK      int
	departments map[int]*roster.Department
	students    map[string]*roster.Student // by student_id
	faculty     map[string]*faculty.Faculty
	courses     map[string]*course.Course // by Key.String()
	enrollment  map[string][]string       // course Key.String() -> student IDs
	attendance  map[string]map[string]*attendance.Record // Key.String() -> student_id -> record
	auditLog    []audit.Entry
}

func NewDB() *DB {
	return &DB{
		departments: make(map[int]*roster.Department),
		students:    make(map[string]*roster.Student),
		faculty:     make(map[string]*faculty.Faculty),
		courses:     make(map[string]*course.Course),
		enrollment:  make(map[string][]string),
		attendance:  make(map[string]map[string]*attendance.Record),
	}
}
