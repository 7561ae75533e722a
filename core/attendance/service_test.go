package attendance

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/course"
)

// fakeRepo is a map-backed Repository with error injection.
type fakeRepo struct {
	records   map[string]map[string]Record // Key.String() -> student_id -> record
	upsertErr error
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]map[string]Record)}
}

func (r *fakeRepo) QueryRecords(_ context.Context, key Key) ([]Record, error) {
	recs := make([]Record, 0)
	for _, rec := range r.records[key.String()] {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *fakeRepo) UpsertRecords(_ context.Context, recs []Record) error {
	if r.upsertErr != nil {
		// atomic: the batch fails wholesale, nothing lands
		return r.upsertErr
	}
	for _, rec := range recs {
		group, ok := r.records[rec.Key.String()]
		if !ok {
			group = make(map[string]Record)
			r.records[rec.Key.String()] = group
		}
		group[rec.StudentID] = rec
	}
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, key Key, status Status) error {
	for id, rec := range r.records[key.String()] {
		rec.Status = status
		r.records[key.String()][id] = rec
	}
	return nil
}

func (r *fakeRepo) QueryGroupStatuses(_ context.Context, keys []course.Key, monthKeys []string) ([]GroupStatus, error) {
	statuses := make([]GroupStatus, 0)
	for _, ck := range keys {
		for _, mk := range monthKeys {
			group := r.records[Key{Key: ck, MonthKey: mk}.String()]
			for _, rec := range group {
				statuses = append(statuses, GroupStatus{Key: ck, MonthKey: mk, Status: rec.Status})
				break
			}
		}
	}
	return statuses, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, core.NopCache{}, core.NewPendingActions(time.Minute), nil)
}

func draftRows() []Row {
	return []Row{
		{StudentID: "S1", Name: "Ada", LecturesHeld: 20, Attended: 18},
		{StudentID: "S2", Name: "Grace", LecturesHeld: 20, Attended: 12},
	}
}

func TestServiceSave_draft(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)
	key := testKey()

	err := svc.Save(ctx, "F001", key, draftRows(), StatusDraft, "")
	assert.NoError(t, err)

	recs, _ := svc.Records(ctx, key)
	if assert.Len(t, recs, 2) {
		for _, rec := range recs {
			assert.Equal(t, StatusDraft, rec.Status)
			assert.Equal(t, "F001", rec.UpdatedBy)
			assert.False(t, rec.UpdatedAt.IsZero())
		}
	}

	state, _ := svc.State(ctx, key)
	assert.Equal(t, StateDraft, state)
}

func TestServiceSave_rejectsInvalidBatchWholesale(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)
	key := testKey()

	rows := draftRows()
	rows[1].Attended = 99 // exceeds lectures held

	err := svc.Save(ctx, "F001", key, rows, StatusDraft, "")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// zero rows written, including the valid one
	recs, _ := svc.Records(ctx, key)
	assert.Empty(t, recs)
	state, _ := svc.State(ctx, key)
	assert.Equal(t, StateNotStarted, state)
}

func TestServiceSave_badTargetAndEmptyBatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeRepo())
	key := testKey()

	assert.Equal(t, ErrBadStatus, errors.Cause(svc.Save(ctx, "F001", key, draftRows(), "PENDING", "")))
	assert.Equal(t, ErrEmptyBatch, errors.Cause(svc.Save(ctx, "F001", key, nil, StatusDraft, "")))
}

func TestServiceLockFlow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)
	key := testKey()

	// locking requires the two-step confirmation
	err := svc.Save(ctx, "F001", key, draftRows(), StatusLocked, "")
	assert.Equal(t, core.ErrConfirmInvalid, errors.Cause(err))

	action, err := svc.RequestLock(ctx, key)
	assert.NoError(t, err)
	assert.NotEmpty(t, action.ID)

	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusLocked, action.ID))
	state, _ := svc.State(ctx, key)
	assert.Equal(t, StateLocked, state)

	// tokens are single-use
	err = svc.Save(ctx, "F001", key, draftRows(), StatusLocked, action.ID)
	assert.Error(t, err)
}

func TestServiceSave_lockedGroupRejectsEverySave(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)
	key := testKey()

	action, _ := svc.RequestLock(ctx, key)
	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusLocked, action.ID))

	// a draft save cannot override the lock
	err := svc.Save(ctx, "F001", key, draftRows(), StatusDraft, "")
	assert.Equal(t, ErrLocked, errors.Cause(err))
	assert.True(t, core.IsStateError(errors.Cause(err)))

	// requesting a second lock is also rejected
	_, err = svc.RequestLock(ctx, key)
	assert.Equal(t, ErrLocked, errors.Cause(err))
}

func TestServiceUnlockFlow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)
	key := testKey()

	// nothing to unlock yet
	_, err := svc.RequestUnlock(ctx, key)
	assert.Equal(t, ErrNoRecords, errors.Cause(err))

	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusDraft, ""))
	_, err = svc.RequestUnlock(ctx, key)
	assert.Equal(t, ErrNotLocked, errors.Cause(err))

	lock, _ := svc.RequestLock(ctx, key)
	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusLocked, lock.ID))

	unlock, err := svc.RequestUnlock(ctx, key)
	assert.NoError(t, err)

	assert.NoError(t, svc.Unlock(ctx, "admin", key, unlock.ID))
	state, _ := svc.State(ctx, key)
	assert.Equal(t, StateDraft, state)

	// DRAFT -> LOCKED is reachable again after the unlock
	relock, _ := svc.RequestLock(ctx, key)
	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusLocked, relock.ID))
}

func TestServiceSave_repoFailureSurfacesVerbatim(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.upsertErr = errors.New("connection reset")
	svc := newTestService(repo)

	err := svc.Save(ctx, "F001", testKey(), draftRows(), StatusDraft, "")
	assert.EqualError(t, errors.Cause(err), "connection reset")
}

func TestServiceStatusSummary(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)
	key := testKey()

	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusDraft, ""))

	courses := []course.Course{
		{Key: key.Key, CourseName: "Algorithms"},
		{Key: course.Key{CourseCode: "CS302", Scope: testScope}, CourseName: "Databases"},
	}
	months := []MonthRef{
		{MonthKey: "202509", DisplayName: "September 2025"},
		{MonthKey: "202508", DisplayName: "August 2025"},
	}

	summary, err := svc.StatusSummary(ctx, courses, months)
	assert.NoError(t, err)
	if assert.Len(t, summary, 4) {
		byKey := make(map[string]GroupState)
		for _, cm := range summary {
			byKey[cm.Course.CourseCode+":"+cm.Month.MonthKey] = cm.State
		}
		assert.Equal(t, StateDraft, byKey["CS301:202509"])
		assert.Equal(t, StateNotStarted, byKey["CS301:202508"])
		assert.Equal(t, StateNotStarted, byKey["CS302:202509"])
		assert.Equal(t, StateNotStarted, byKey["CS302:202508"])
	}
}

func TestServiceRecords_cached(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, newStubCache(), core.NewPendingActions(time.Minute), nil)
	key := testKey()

	assert.NoError(t, svc.Save(ctx, "F001", key, draftRows(), StatusDraft, ""))

	first, err := svc.Records(ctx, key)
	assert.NoError(t, err)
	repo.records = map[string]map[string]Record{} // drop the backing rows

	// the cached view still serves
	second, err := svc.Records(ctx, key)
	assert.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

// stubCache is a minimal in-memory core.Cache with real JSON round-trips.
type stubCache struct {
	items map[string][]byte
}

func newStubCache() *stubCache { return &stubCache{items: make(map[string][]byte)} }

func (c *stubCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *stubCache) Set(_ context.Context, key string, val interface{}) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *stubCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *stubCache) DeletePrefix(_ context.Context, prefix string) error {
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}
