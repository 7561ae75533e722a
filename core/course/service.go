package course

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	Repository interface {
		GetCourse(ctx context.Context, key Key) (Course, error)
		QueryCourses(ctx context.Context, scope core.Scope) ([]Course, error)
		// QueryAssignedCourses returns a faculty member's courses across all
		// scopes, with DepartmentName populated.
		QueryAssignedCourses(ctx context.Context, facultyID string) ([]Course, error)
		UpsertCourses(ctx context.Context, courses []Course) error
		DeleteAllCourses(ctx context.Context) error

		QueryEnrollment(ctx context.Context, key Key) ([]string, error)
		// ReplaceEnrollment atomically removes the override set for exactly
		// this key and inserts the new one. Other courses and scopes sharing a
		// student are untouched.
		ReplaceEnrollment(ctx context.Context, key Key, studentIDs []string) error
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

func coursesCacheKey(scope core.Scope) string {
	return fmt.Sprintf("courses:%d:%s:%s", scope.DepartmentID, scope.ClassName, scope.Section)
}

func enrollmentCacheKey(key Key) string {
	return "enrollment:" + key.String()
}

func (svc *Service) Get(ctx context.Context, key Key) (Course, error) {
	return svc.repo.GetCourse(ctx, key)
}

func (svc *Service) Courses(ctx context.Context, scope core.Scope) ([]Course, error) {
	cacheKey := coursesCacheKey(scope)
	var courses []Course
	if ok, _ := svc.cache.Get(ctx, cacheKey, &courses); ok {
		return courses, nil
	}
	courses, err := svc.repo.QueryCourses(ctx, scope)
	if err != nil {
		return nil, err
	}
	_ = svc.cache.Set(ctx, cacheKey, courses)
	return courses, nil
}

func (svc *Service) Assigned(ctx context.Context, facultyID string) ([]Course, error) {
	return svc.repo.QueryAssignedCourses(ctx, facultyID)
}

func (svc *Service) EnrolledIDs(ctx context.Context, key Key) ([]string, error) {
	cacheKey := enrollmentCacheKey(key)
	var ids []string
	if ok, _ := svc.cache.Get(ctx, cacheKey, &ids); ok {
		return ids, nil
	}
	ids, err := svc.repo.QueryEnrollment(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = svc.cache.Set(ctx, cacheKey, ids)
	return ids, nil
}

// SetEnrollment replaces the override set for the key: full delete-then-insert,
// last write wins, no merge with prior state.
func (svc *Service) SetEnrollment(ctx context.Context, key Key, studentIDs []string) error {
	if _, err := svc.repo.GetCourse(ctx, key); err != nil {
		return err
	}
	if err := svc.repo.ReplaceEnrollment(ctx, key, studentIDs); err != nil {
		return pkgerrors.Wrap(err, "replacing enrollment")
	}
	return svc.cache.Delete(ctx, enrollmentCacheKey(key))
}

func (svc *Service) Import(ctx context.Context, courses []Course) error {
	if len(courses) == 0 {
		return nil
	}
	if err := svc.repo.UpsertCourses(ctx, courses); err != nil {
		return pkgerrors.Wrap(err, "upserting courses")
	}
	return svc.cache.Delete(ctx, coursesCacheKey(courses[0].Scope))
}

// Wipe permanently deletes every course row. Irreversible; callers gate it
// behind the danger-zone password and a confirmation token.
func (svc *Service) Wipe(ctx context.Context) error {
	if err := svc.repo.DeleteAllCourses(ctx); err != nil {
		return pkgerrors.Wrap(err, "deleting courses")
	}
	if err := svc.cache.DeletePrefix(ctx, "courses:"); err != nil {
		return err
	}
	return svc.cache.DeletePrefix(ctx, "enrollment:")
}
