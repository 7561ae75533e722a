package inmemdb

import (
	"context"
	"sort"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourse(ctx context.Context, key course.Key) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[key.String()]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, scope core.Scope) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.db.courses {
		if crs.Scope == scope {
			courses = append(courses, *crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseCode < courses[j].CourseCode })
	return courses, nil
}

func (repo *courseRepository) QueryAssignedCourses(ctx context.Context, facultyID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.db.courses {
		if crs.AssignedFacultyID != facultyID {
			continue
		}
		crs := *crs
		if dept, ok := repo.db.departments[crs.DepartmentID]; ok {
			crs.DepartmentName = dept.Name
		}
		courses = append(courses, crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Key.String() < courses[j].Key.String() })
	return courses, nil
}

func (repo *courseRepository) UpsertCourses(ctx context.Context, courses []course.Course) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, crs := range courses {
		crs := crs
		repo.db.courses[crs.Key.String()] = &crs
	}
	return nil
}

func (repo *courseRepository) DeleteAllCourses(ctx context.Context) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.courses = make(map[string]*course.Course)
	repo.db.enrollment = make(map[string][]string)
	return nil
}

func (repo *courseRepository) QueryEnrollment(ctx context.Context, key course.Key) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := append([]string(nil), repo.db.enrollment[key.String()]...)
	sort.Strings(ids)
	return ids, nil
}

func (repo *courseRepository) ReplaceEnrollment(ctx context.Context, key course.Key, studentIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if len(studentIDs) == 0 {
		delete(repo.db.enrollment, key.String())
		return nil
	}
	repo.db.enrollment[key.String()] = append([]string(nil), studentIDs...)
	return nil
}
