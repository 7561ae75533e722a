package roster

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nileshsabnis10/attendance/core"
)

type fakeRepo struct {
	nextDeptID  int
	departments []Department
	students    map[string]Student
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextDeptID: 1, students: make(map[string]Student)}
}

func (r *fakeRepo) CreateDepartment(ctx context.Context, name string) (Department, error) {
	for _, d := range r.departments {
		if d.Name == name {
			return Department{}, ErrDepartmentExists
		}
	}
	dept := Department{ID: r.nextDeptID, Name: name}
	r.nextDeptID++
	r.departments = append(r.departments, dept)
	return dept, nil
}

func (r *fakeRepo) QueryDepartments(ctx context.Context) ([]Department, error) {
	return r.departments, nil
}

func (r *fakeRepo) QuerySections(ctx context.Context, departmentID int, className string) ([]string, error) {
	seen := make(map[string]bool)
	var sections []string
	for _, s := range r.students {
		if s.DepartmentID == departmentID && s.ClassName == className && !seen[s.Section] {
			seen[s.Section] = true
			sections = append(sections, s.Section)
		}
	}
	sort.Strings(sections)
	return sections, nil
}

func (r *fakeRepo) QueryRoster(ctx context.Context, scope core.Scope) ([]Student, error) {
	var students []Student
	for _, s := range r.students {
		if s.Scope() == scope && s.IsActive {
			students = append(students, s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].PRN < students[j].PRN })
	return students, nil
}

func (r *fakeRepo) UpsertStudents(ctx context.Context, students []Student) error {
	for _, s := range students {
		r.students[s.StudentID] = s
	}
	return nil
}

func (r *fakeRepo) DeleteAllStudents(ctx context.Context) error {
	r.students = make(map[string]Student)
	return nil
}

func TestServiceCreateDepartment(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), nil)

	dept, err := svc.CreateDepartment(ctx, "  Computer Science ")
	assert.NoError(t, err)
	assert.Equal(t, 1, dept.ID)
	assert.Equal(t, "Computer Science", dept.Name) // trimmed before storing

	_, err = svc.CreateDepartment(ctx, "Computer Science")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Fields[0].Field)
}

func TestServiceCreateDepartment_blankName(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.CreateDepartment(ctx, "   ")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Fields[0].Field)
	assert.Equal(t, "this field is required", vErr.Fields[0].Error)
}

func TestServiceCreateSection(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := core.Scope{DepartmentID: 1, ClassName: "Third Year", Section: "B"}

	assert.NoError(t, svc.CreateSection(ctx, scope))

	sections, err := svc.Sections(ctx, 1, "Third Year")
	assert.NoError(t, err)
	assert.Equal(t, []string{"B"}, sections)

	// the placeholder is inactive and must never show up in the roster
	students, err := svc.Roster(ctx, scope)
	assert.NoError(t, err)
	assert.Empty(t, students)
}

func TestServiceRoster_sortedByPRN(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), nil)

	err := svc.ImportStudents(ctx, []Student{
		{StudentID: "S2", PRN: "102", Name: "B", DepartmentID: 1, ClassName: "Third Year", Section: "A", IsActive: true},
		{StudentID: "S1", PRN: "101", Name: "A", DepartmentID: 1, ClassName: "Third Year", Section: "A", IsActive: true},
	})
	assert.NoError(t, err)

	students, err := svc.Roster(ctx, testScope)
	assert.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, "S1", students[0].StudentID)
	assert.Equal(t, "S2", students[1].StudentID)
}

func TestServiceRoster_cacheInvalidatedByImport(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := newCacheSpy()
	svc := NewService(repo, cache)

	students, err := svc.Roster(ctx, testScope)
	assert.NoError(t, err)
	assert.Empty(t, students)

	err = svc.ImportStudents(ctx, []Student{
		{StudentID: "S1", PRN: "101", Name: "A", DepartmentID: 1, ClassName: "Third Year", Section: "A", IsActive: true},
	})
	assert.NoError(t, err)

	students, err = svc.Roster(ctx, testScope)
	assert.NoError(t, err)
	assert.Len(t, students, 1) // the import evicted the cached empty roster
}

func TestServiceWipeStudents(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := newCacheSpy()
	svc := NewService(repo, cache)

	err := svc.ImportStudents(ctx, []Student{
		{StudentID: "S1", PRN: "101", Name: "A", DepartmentID: 1, ClassName: "Third Year", Section: "A", IsActive: true},
	})
	assert.NoError(t, err)
	_, _ = svc.Roster(ctx, testScope)
	_, _ = svc.Sections(ctx, 1, "Third Year")

	assert.NoError(t, svc.WipeStudents(ctx))

	students, err := svc.Roster(ctx, testScope)
	assert.NoError(t, err)
	assert.Empty(t, students)
	sections, err := svc.Sections(ctx, 1, "Third Year")
	assert.NoError(t, err)
	assert.Empty(t, sections)
}

// cacheSpy is an in-memory core.Cache with real JSON round-trips.
type cacheSpy struct {
	items map[string][]byte
}

func newCacheSpy() *cacheSpy { return &cacheSpy{items: make(map[string][]byte)} }

func (c *cacheSpy) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *cacheSpy) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = data
	return nil
}

func (c *cacheSpy) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *cacheSpy) DeletePrefix(ctx context.Context, prefix string) error {
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}
