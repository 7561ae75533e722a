package roster

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
)

var (
	// errors
	ErrDepartmentExists = errors.New("a department with this name already exists")
	ErrNotFound         = errors.New("not found")
)

type (
	Repository interface {
		CreateDepartment(ctx context.Context, name string) (Department, error)
		QueryDepartments(ctx context.Context) ([]Department, error)
		// QuerySections returns the distinct sections present for
		// (department, class), sorted.
		QuerySections(ctx context.Context, departmentID int, className string) ([]string, error)
		// QueryRoster returns the active students of the scope ordered by PRN.
		QueryRoster(ctx context.Context, scope core.Scope) ([]Student, error)
		UpsertStudents(ctx context.Context, students []Student) error
		DeleteAllStudents(ctx context.Context) error
	}

	Service struct {
		repo  Repository
		cache core.Cache
	}
)

func NewService(repo Repository, cache core.Cache) *Service {
	if cache == nil {
		cache = core.NopCache{}
	}
	return &Service{repo: repo, cache: cache}
}

func departmentsCacheKey() string { return "departments" }

func sectionsCacheKey(departmentID int, className string) string {
	return fmt.Sprintf("sections:%d:%s", departmentID, className)
}

func rosterCacheKey(scope core.Scope) string {
	return fmt.Sprintf("roster:%d:%s:%s", scope.DepartmentID, scope.ClassName, scope.Section)
}

func (svc *Service) CreateDepartment(ctx context.Context, name string) (Department, error) {
	name = core.CleanString(name)
	if name == "" {
		return Department{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	dept, err := svc.repo.CreateDepartment(ctx, name)
	if err != nil {
		if pkgerrors.Cause(err) == ErrDepartmentExists {
			return Department{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Department{}, err
	}
	_ = svc.cache.Delete(ctx, departmentsCacheKey())
	return dept, nil
}

func (svc *Service) Departments(ctx context.Context) ([]Department, error) {
	var depts []Department
	if ok, _ := svc.cache.Get(ctx, departmentsCacheKey(), &depts); ok {
		return depts, nil
	}
	depts, err := svc.repo.QueryDepartments(ctx)
	if err != nil {
		return nil, err
	}
	_ = svc.cache.Set(ctx, departmentsCacheKey(), depts)
	return depts, nil
}

func (svc *Service) Sections(ctx context.Context, departmentID int, className string) ([]string, error) {
	key := sectionsCacheKey(departmentID, className)
	var sections []string
	if ok, _ := svc.cache.Get(ctx, key, &sections); ok {
		return sections, nil
	}
	sections, err := svc.repo.QuerySections(ctx, departmentID, className)
	if err != nil {
		return nil, err
	}
	_ = svc.cache.Set(ctx, key, sections)
	return sections, nil
}

// CreateSection pins a new section into existence for the scope by upserting
// its placeholder student.
func (svc *Service) CreateSection(ctx context.Context, scope core.Scope) error {
	if err := svc.repo.UpsertStudents(ctx, []Student{placeholderStudent(scope)}); err != nil {
		return pkgerrors.Wrap(err, "creating section placeholder")
	}
	return svc.invalidateStudents(ctx, scope)
}

func (svc *Service) Roster(ctx context.Context, scope core.Scope) ([]Student, error) {
	key := rosterCacheKey(scope)
	var students []Student
	if ok, _ := svc.cache.Get(ctx, key, &students); ok {
		return students, nil
	}
	students, err := svc.repo.QueryRoster(ctx, scope)
	if err != nil {
		return nil, err
	}
	_ = svc.cache.Set(ctx, key, students)
	return students, nil
}

// ImportStudents persists a parsed, pre-checked import batch.
func (svc *Service) ImportStudents(ctx context.Context, students []Student) error {
	if len(students) == 0 {
		return nil
	}
	if err := svc.repo.UpsertStudents(ctx, students); err != nil {
		return pkgerrors.Wrap(err, "upserting students")
	}
	return svc.invalidateStudents(ctx, students[0].Scope())
}

// WipeStudents permanently deletes every student row. Irreversible; callers
// gate it behind the danger-zone password and a confirmation token.
func (svc *Service) WipeStudents(ctx context.Context) error {
	if err := svc.repo.DeleteAllStudents(ctx); err != nil {
		return pkgerrors.Wrap(err, "deleting students")
	}
	if err := svc.cache.DeletePrefix(ctx, "roster:"); err != nil {
		return err
	}
	return svc.cache.DeletePrefix(ctx, "sections:")
}

func (svc *Service) invalidateStudents(ctx context.Context, scope core.Scope) error {
	return svc.cache.Delete(ctx,
		rosterCacheKey(scope),
		sectionsCacheKey(scope.DepartmentID, scope.ClassName),
	)
}
