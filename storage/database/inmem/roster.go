package inmemdb

import (
	"context"
	"sort"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/roster"
)

type rosterRepository struct {
	db *DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo *rosterRepository) CreateDepartment(ctx context.Context, name string) (roster.Department, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, dept := range repo.db.departments {
		if dept.Name == name {
			return roster.Department{}, roster.ErrDepartmentExists
		}
	}
	repo.db.deptPK++
	dept := roster.Department{ID: repo.db.deptPK, Name: name}
	repo.db.departments[dept.ID] = &dept
	return dept, nil
}

func (repo *rosterRepository) QueryDepartments(ctx context.Context) ([]roster.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	depts := make([]roster.Department, 0, len(repo.db.departments))
	for _, dept := range repo.db.departments {
		depts = append(depts, *dept)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Name < depts[j].Name })
	return depts, nil
}

func (repo *rosterRepository) QuerySections(ctx context.Context, departmentID int, className string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]struct{})
	sections := make([]string, 0)
	for _, st := range repo.db.students {
		if st.DepartmentID != departmentID || st.ClassName != className {
			continue
		}
		if _, ok := seen[st.Section]; !ok {
			seen[st.Section] = struct{}{}
			sections = append(sections, st.Section)
		}
	}
	sort.Strings(sections)
	return sections, nil
}

func (repo *rosterRepository) QueryRoster(ctx context.Context, scope core.Scope) ([]roster.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]roster.Student, 0)
	for _, st := range repo.db.students {
		if st.Scope() == scope && st.IsActive {
			students = append(students, *st)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].PRN < students[j].PRN })
	return students, nil
}

func (repo *rosterRepository) UpsertStudents(ctx context.Context, students []roster.Student) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, st := range students {
		st := st
		repo.db.students[st.StudentID] = &st
	}
	return nil
}

func (repo *rosterRepository) DeleteAllStudents(ctx context.Context) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.students = make(map[string]*roster.Student)
	return nil
}
