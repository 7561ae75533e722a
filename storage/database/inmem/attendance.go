package inmemdb

import (
	"context"
	"sort"

	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/course"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, key attendance.Key) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance[key.String()] {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].StudentID < recs[j].StudentID })
	return recs, nil
}

func (repo *attendanceRepository) UpsertRecords(ctx context.Context, recs []attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range recs {
		rec := rec
		group, ok := repo.db.attendance[rec.Key.String()]
		if !ok {
			group = make(map[string]*attendance.Record)
			repo.db.attendance[rec.Key.String()] = group
		}
		group[rec.StudentID] = &rec
	}
	return nil
}

func (repo *attendanceRepository) UpdateStatus(ctx context.Context, key attendance.Key, status attendance.Status) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range repo.db.attendance[key.String()] {
		rec.Status = status
	}
	return nil
}

func (repo *attendanceRepository) QueryGroupStatuses(ctx context.Context, keys []course.Key, monthKeys []string) ([]attendance.GroupStatus, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	statuses := make([]attendance.GroupStatus, 0)
	for _, courseKey := range keys {
		for _, monthKey := range monthKeys {
			group := repo.db.attendance[attendance.Key{Key: courseKey, MonthKey: monthKey}.String()]
			if len(group) == 0 {
				continue
			}
			var status attendance.Status
			for _, rec := range group {
				status = rec.Status
				break
			}
			statuses = append(statuses, attendance.GroupStatus{Key: courseKey, MonthKey: monthKey, Status: status})
		}
	}
	return statuses, nil
}
