package course

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
	courses    map[string]Course
	enrollment map[string][]string
	queries    int
}

func newFakeRepo(courses ...Course) *fakeRepo {
	repo := &fakeRepo{
		courses:    make(map[string]Course, len(courses)),
		enrollment: make(map[string][]string),
	}
	for _, crs := range courses {
		repo.courses[crs.Key.String()] = crs
	}
	return repo
}

func (r *fakeRepo) GetCourse(ctx context.Context, key Key) (Course, error) {
	crs, ok := r.courses[key.String()]
	if !ok {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

func (r *fakeRepo) QueryCourses(ctx context.Context, scope core.Scope) ([]Course, error) {
	r.queries++
	var courses []Course
	for _, crs := range r.courses {
		if crs.Scope == scope {
			courses = append(courses, crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseCode < courses[j].CourseCode })
	return courses, nil
}

func (r *fakeRepo) QueryAssignedCourses(ctx context.Context, facultyID string) ([]Course, error) {
	var courses []Course
	for _, crs := range r.courses {
		if crs.AssignedFacultyID == facultyID {
			courses = append(courses, crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseCode < courses[j].CourseCode })
	return courses, nil
}

func (r *fakeRepo) UpsertCourses(ctx context.Context, courses []Course) error {
	for _, crs := range courses {
		r.courses[crs.Key.String()] = crs
	}
	return nil
}

func (r *fakeRepo) DeleteAllCourses(ctx context.Context) error {
	r.courses = make(map[string]Course)
	r.enrollment = make(map[string][]string)
	return nil
}

func (r *fakeRepo) QueryEnrollment(ctx context.Context, key Key) ([]string, error) {
	return r.enrollment[key.String()], nil
}

func (r *fakeRepo) ReplaceEnrollment(ctx context.Context, key Key, studentIDs []string) error {
	if len(studentIDs) == 0 {
		delete(r.enrollment, key.String())
		return nil
	}
	r.enrollment[key.String()] = studentIDs
	return nil
}

func testCourse(code, facultyID string) Course {
	return Course{
		Key:               Key{CourseCode: code, Scope: testScope},
		CourseName:        "Course " + code,
		AssignedFacultyID: facultyID,
	}
}

func TestServiceSetEnrollment(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(testCourse("CS301", "F001"))
	svc := NewService(repo, nil)
	key := Key{CourseCode: "CS301", Scope: testScope}

	// replace, not merge: the second write discards the first set entirely
	assert.NoError(t, svc.SetEnrollment(ctx, key, []string{"S1", "S2"}))
	assert.NoError(t, svc.SetEnrollment(ctx, key, []string{"S3"}))

	ids, err := svc.EnrolledIDs(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, []string{"S3"}, ids)

	// clearing the override restores enroll-everyone semantics
	assert.NoError(t, svc.SetEnrollment(ctx, key, nil))
	ids, err = svc.EnrolledIDs(ctx, key)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestServiceSetEnrollment_unknownCourse(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), nil)
	key := Key{CourseCode: "CS999", Scope: testScope}

	err := svc.SetEnrollment(ctx, key, []string{"S1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCourses_cached(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(testCourse("CS301", "F001"), testCourse("CS302", "F002"))
	svc := NewService(repo, newCacheSpy())

	first, err := svc.Courses(ctx, testScope)
	assert.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := svc.Courses(ctx, testScope)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.queries) // second read served from cache
}

func TestServiceImport_invalidatesCourseCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(testCourse("CS301", "F001"))
	svc := NewService(repo, newCacheSpy())

	courses, err := svc.Courses(ctx, testScope)
	assert.NoError(t, err)
	assert.Len(t, courses, 1)

	assert.NoError(t, svc.Import(ctx, []Course{testCourse("CS302", "F002")}))

	courses, err = svc.Courses(ctx, testScope)
	assert.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestServiceAssigned(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(
		testCourse("CS301", "F001"),
		testCourse("CS302", "F002"),
		testCourse("CS303", "F001"),
	)
	svc := NewService(repo, nil)

	assigned, err := svc.Assigned(ctx, "F001")
	assert.NoError(t, err)
	assert.Len(t, assigned, 2)
	assert.Equal(t, "CS301", assigned[0].CourseCode)
	assert.Equal(t, "CS303", assigned[1].CourseCode)
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
