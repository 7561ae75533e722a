package inmemdb

import (
	"context"
	"sort"

	"github.com/nileshsabnis10/attendance/core/faculty"
)

type facultyRepository struct {
	db *DB
}

var _ faculty.Repository = (*facultyRepository)(nil) // interface compliance check

func NewFacultyRepository(db *DB) *facultyRepository {
	return &facultyRepository{db: db}
}

func (repo *facultyRepository) GetFaculty(ctx context.Context, facultyID string) (faculty.Faculty, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if member, ok := repo.db.faculty[facultyID]; ok {
		return *member, nil
	}
	return faculty.Faculty{}, faculty.ErrNotFound
}

func (repo *facultyRepository) QueryAllFaculty(ctx context.Context) ([]faculty.Faculty, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	members := make([]faculty.Faculty, 0, len(repo.db.faculty))
	for _, member := range repo.db.faculty {
		members = append(members, *member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].FacultyID < members[j].FacultyID })
	return members, nil
}

func (repo *facultyRepository) UpsertFaculty(ctx context.Context, members []faculty.Faculty) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, member := range members {
		member := member
		repo.db.faculty[member.FacultyID] = &member
	}
	return nil
}

func (repo *facultyRepository) DeleteAllFaculty(ctx context.Context) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.faculty = make(map[string]*faculty.Faculty)
	return nil
}
