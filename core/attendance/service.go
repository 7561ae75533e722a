package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/audit"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/roster"
)

// pending-action types
const (
	actionLock   = "lock"
	actionUnlock = "unlock"
)

var (
	// errors
	ErrLocked     = core.NewStateError("this month's attendance is LOCKED; an administrator must unlock it first")
	ErrNotLocked  = core.NewStateError("these records are not LOCKED")
	ErrNoRecords  = core.NewStateError("no attendance records exist for this course and month")
	ErrBadStatus  = errors.New("target status must be DRAFT or LOCKED")
	ErrEmptyBatch = errors.New("the grid has no rows to save")
)

type (
	// GroupStatus reports the persisted status of one (course, month) group.
	GroupStatus struct {
		course.Key
		MonthKey string `json:"month_yyyy_mm" db:"month_yyyy_mm"`
		Status   Status `json:"status" db:"status"`
	}

	Repository interface {
		QueryRecords(ctx context.Context, key Key) ([]Record, error)
		// UpsertRecords persists the batch as one atomic operation: either
		// every row lands or none does. Rows with an existing composite key
		// are fully replaced, not merged field-by-field.
		UpsertRecords(ctx context.Context, recs []Record) error
		// UpdateStatus flips the status of every row in the group.
		UpdateStatus(ctx context.Context, key Key, status Status) error
		// QueryGroupStatuses returns one row per (course, month) group having
		// any persisted records, limited to the given courses and months.
		QueryGroupStatuses(ctx context.Context, keys []course.Key, monthKeys []string) ([]GroupStatus, error)
	}

	Service struct {
		repo    Repository
		cache   core.Cache
		pending *core.PendingActions
		auditor *audit.Logger
		now     func() time.Time
	}
)

func NewService(repo Repository, cache core.Cache, pending *core.PendingActions, auditor *audit.Logger) *Service {
	if cache == nil {
		cache = core.NopCache{}
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		pending: pending,
		auditor: auditor,
		now:     time.Now,
	}
}

func recordsCacheKey(key Key) string { return "attendance:" + key.String() }

func statusCacheKey(key course.Key) string { return "attendance-status:" + key.String() }

// Records returns the persisted rows for the key (cached).
func (svc *Service) Records(ctx context.Context, key Key) ([]Record, error) {
	cacheKey := recordsCacheKey(key)
	var recs []Record
	if ok, _ := svc.cache.Get(ctx, cacheKey, &recs); ok {
		return recs, nil
	}
	recs, err := svc.repo.QueryRecords(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = svc.cache.Set(ctx, cacheKey, recs)
	return recs, nil
}

// State reports the lifecycle state of the group: NOT_STARTED when no rows
// are persisted, else the uniform batch status.
func (svc *Service) State(ctx context.Context, key Key) (GroupState, error) {
	recs, err := svc.Records(ctx, key)
	if err != nil {
		return "", err
	}
	return GridState(recs), nil
}

// Grid builds the editable grid for the key: the effective roster merged with
// any persisted rows (see BuildGrid).
func (svc *Service) Grid(ctx context.Context, key Key, students []roster.Student, sessionLectures int) ([]Row, GroupState, error) {
	recs, err := svc.Records(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return BuildGrid(students, recs, sessionLectures), GridState(recs), nil
}

// RequestLock starts the two-step "submit & lock" confirmation and returns the
// token the caller must re-submit to Save(..., StatusLocked, token).
func (svc *Service) RequestLock(ctx context.Context, key Key) (core.PendingAction, error) {
	state, err := svc.State(ctx, key)
	if err != nil {
		return core.PendingAction{}, err
	}
	if state == StateLocked {
		return core.PendingAction{}, ErrLocked
	}
	return svc.pending.Issue(actionLock, key.String()), nil
}

// RequestUnlock starts the administrator unlock confirmation.
func (svc *Service) RequestUnlock(ctx context.Context, key Key) (core.PendingAction, error) {
	state, err := svc.State(ctx, key)
	if err != nil {
		return core.PendingAction{}, err
	}
	switch state {
	case StateNotStarted:
		return core.PendingAction{}, ErrNoRecords
	case StateDraft:
		return core.PendingAction{}, ErrNotLocked
	}
	return svc.pending.Issue(actionUnlock, key.String()), nil
}

// Save validates and persists the edited grid with a uniform target status.
// The whole batch is rejected - zero rows written - when the group is LOCKED,
// when any row violates attended <= lectures_held, or (for a LOCKED target)
// when the confirmation token is missing, expired or mismatched.
func (svc *Service) Save(ctx context.Context, facultyID string, key Key, rows []Row, target Status, confirmToken string) error {
	if target != StatusDraft && target != StatusLocked {
		return ErrBadStatus
	}
	if len(rows) == 0 {
		return ErrEmptyBatch
	}

	// a LOCKED group rejects every save outside the unlock path, before any
	// validation or write
	state, err := svc.State(ctx, key)
	if err != nil {
		return err
	}
	if state == StateLocked {
		return ErrLocked
	}

	if err = ValidateRows(rows); err != nil {
		return err
	}

	if target == StatusLocked {
		if err = svc.pending.Confirm(confirmToken, actionLock, key.String()); err != nil {
			return err
		}
	}

	stamp := svc.now().UTC()
	recs := make([]Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, Record{
			Key:          key,
			StudentID:    row.StudentID,
			LecturesHeld: row.LecturesHeld,
			Attended:     row.Attended,
			Status:       target,
			Remarks:      row.Remarks,
			UpdatedBy:    facultyID,
			UpdatedAt:    stamp,
		})
	}
	if err = svc.repo.UpsertRecords(ctx, recs); err != nil {
		return errors.Wrap(err, "saving attendance batch")
	}

	if err = svc.invalidate(ctx, key); err != nil {
		return err
	}
	if target == StatusLocked {
		svc.auditor.Log(ctx, facultyID, audit.ActionLockAttendance, map[string]interface{}{
			"course": key.CourseCode, "month": key.MonthKey,
		})
	}
	return nil
}

// Unlock is the administrator-only LOCKED -> DRAFT transition. Unconditional
// once the confirmation token checks out; it is the only path that changes
// state while the acting identity is not the submitting faculty member.
func (svc *Service) Unlock(ctx context.Context, adminID string, key Key, confirmToken string) error {
	if err := svc.pending.Confirm(confirmToken, actionUnlock, key.String()); err != nil {
		return err
	}
	state, err := svc.State(ctx, key)
	if err != nil {
		return err
	}
	if state != StateLocked {
		return ErrNotLocked
	}

	if err = svc.repo.UpdateStatus(ctx, key, StatusDraft); err != nil {
		return errors.Wrap(err, "unlocking attendance")
	}
	if err = svc.invalidate(ctx, key); err != nil {
		return err
	}
	svc.auditor.Log(ctx, adminID, audit.ActionUnlockAttendance, map[string]interface{}{
		"course": key.CourseCode, "month": key.MonthKey,
	})
	return nil
}

// StatusSummary reports the state of every (course, month) pair for the
// faculty dashboard, filling NOT_STARTED for pairs with no persisted rows.
func (svc *Service) StatusSummary(ctx context.Context, courses []course.Course, months []MonthRef) ([]CourseMonthState, error) {
	if len(courses) == 0 || len(months) == 0 {
		return []CourseMonthState{}, nil
	}
	keys := make([]course.Key, 0, len(courses))
	for _, c := range courses {
		keys = append(keys, c.Key)
	}
	monthKeys := make([]string, 0, len(months))
	for _, m := range months {
		monthKeys = append(monthKeys, m.MonthKey)
	}

	statuses, err := svc.groupStatuses(ctx, keys, monthKeys)
	if err != nil {
		return nil, err
	}
	persisted := make(map[string]Status, len(statuses))
	for _, gs := range statuses {
		persisted[gs.Key.String()+":"+gs.MonthKey] = gs.Status
	}

	summary := make([]CourseMonthState, 0, len(courses)*len(months))
	for _, c := range courses {
		for _, m := range months {
			state := StateNotStarted
			if st, ok := persisted[c.Key.String()+":"+m.MonthKey]; ok {
				state = GroupState(st)
			}
			summary = append(summary, CourseMonthState{
				Course: c.Key, CourseName: c.CourseName, Month: m, State: state,
			})
		}
	}
	return summary, nil
}

type CourseMonthState struct {
	Course     course.Key `json:"course"`
	CourseName string     `json:"course_name"`
	Month      MonthRef   `json:"month"`
	State      GroupState `json:"state"`
}

// groupStatuses memoizes the persisted statuses per course; the month set is
// part of the cache key, invalidation drops every month of the course at once.
func (svc *Service) groupStatuses(ctx context.Context, keys []course.Key, monthKeys []string) ([]GroupStatus, error) {
	months := strings.Join(monthKeys, ",")
	var all []GroupStatus
	var misses []course.Key
	for _, key := range keys {
		var cached []GroupStatus
		if ok, _ := svc.cache.Get(ctx, statusCacheKey(key)+":"+months, &cached); ok {
			all = append(all, cached...)
		} else {
			misses = append(misses, key)
		}
	}
	if len(misses) == 0 {
		return all, nil
	}

	fetched, err := svc.repo.QueryGroupStatuses(ctx, misses, monthKeys)
	if err != nil {
		return nil, err
	}
	byCourse := make(map[string][]GroupStatus, len(misses))
	for _, gs := range fetched {
		byCourse[gs.Key.String()] = append(byCourse[gs.Key.String()], gs)
	}
	for _, key := range misses {
		_ = svc.cache.Set(ctx, statusCacheKey(key)+":"+months, byCourse[key.String()])
	}
	return append(all, fetched...), nil
}

func (svc *Service) invalidate(ctx context.Context, key Key) error {
	if err := svc.cache.Delete(ctx, recordsCacheKey(key)); err != nil {
		return err
	}
	return svc.cache.DeletePrefix(ctx, statusCacheKey(key.Key))
}
