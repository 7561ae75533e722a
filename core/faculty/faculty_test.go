package faculty

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nileshsabnis10/attendance/core"
)

func TestParseFacultyCSV(t *testing.T) {
	csv := "faculty_id,name,phone_number,email\n" +
		"F001,Dr. Alan Turing,9876543210,alan@sgu.edu\n" +
		"F002,Dr. Grace Hopper,9123456789,\n"

	members, err := ParseFacultyCSV(strings.NewReader(csv))
	assert.NoError(t, err)
	assert.Len(t, members, 2)

	turing := members[0]
	assert.Equal(t, "F001", turing.FacultyID)
	assert.Equal(t, "alan@sgu.edu", turing.Email)
	// PIN seeded from the last 4 phone digits, stored only as a hash
	assert.NoError(t, turing.CheckPIN("3210"))
	assert.Error(t, turing.CheckPIN("0000"))
	assert.NotContains(t, string(turing.PINHash), "3210")

	assert.NoError(t, members[1].CheckPIN("6789"))
}

func TestParseFacultyCSV_shortPhone(t *testing.T) {
	csv := "faculty_id,name,phone_number\n" +
		"F001,Dr. Alan Turing,987\n" +
		"F002,Dr. Grace Hopper,9123456789\n"

	members, err := ParseFacultyCSV(strings.NewReader(csv))
	assert.Nil(t, members)

	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 1)
	assert.Equal(t, "F001", vErr.Fields[0].Field)
}

func TestParseFacultyCSV_duplicateIDsRejectWholeFile(t *testing.T) {
	csv := "faculty_id,name,phone_number\n" +
		"F001,Dr. Alan Turing,9876543210\n" +
		"F001,Dr. Alan Turing Again,9876543211\n"

	_, err := ParseFacultyCSV(strings.NewReader(csv))
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "F001", vErr.Fields[0].Field)
}

func TestFacultyTemplateCSV(t *testing.T) {
	tmpl := string(FacultyTemplateCSV())
	assert.True(t, strings.HasPrefix(tmpl, "faculty_id,name,phone_number\n"))
}

type fakeRepo struct {
	members map[string]Faculty
}

func newFakeRepo(members ...Faculty) *fakeRepo {
	repo := &fakeRepo{members: make(map[string]Faculty, len(members))}
	for _, m := range members {
		repo.members[m.FacultyID] = m
	}
	return repo
}

func (r *fakeRepo) GetFaculty(ctx context.Context, facultyID string) (Faculty, error) {
	m, ok := r.members[facultyID]
	if !ok {
		return Faculty{}, ErrNotFound
	}
	return m, nil
}

func (r *fakeRepo) QueryAllFaculty(ctx context.Context) ([]Faculty, error) {
	var members []Faculty
	for _, m := range r.members {
		members = append(members, m)
	}
	return members, nil
}

func (r *fakeRepo) UpsertFaculty(ctx context.Context, members []Faculty) error {
	for _, m := range members {
		r.members[m.FacultyID] = m
	}
	return nil
}

func (r *fakeRepo) DeleteAllFaculty(ctx context.Context) error {
	r.members = make(map[string]Faculty)
	return nil
}

func TestServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	member := Faculty{FacultyID: "F001", Name: "Dr. Alan Turing", PhoneNumber: "9876543210"}
	assert.NoError(t, member.SetPIN("3210"))
	svc := NewService(newFakeRepo(member))

	got, err := svc.Authenticate(ctx, "F001", "3210")
	assert.NoError(t, err)
	assert.Equal(t, "Dr. Alan Turing", got.Name)

	// wrong PIN and unknown ID are indistinguishable
	_, err = svc.Authenticate(ctx, "F001", "0000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Authenticate(ctx, "F999", "3210")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceImportAndWipe(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	assert.NoError(t, svc.Import(ctx, nil)) // empty batch is a no-op

	member := Faculty{FacultyID: "F001", Name: "Dr. Alan Turing"}
	assert.NoError(t, svc.Import(ctx, []Faculty{member}))
	got, err := svc.GetByID(ctx, "F001")
	assert.NoError(t, err)
	assert.Equal(t, member.Name, got.Name)

	assert.NoError(t, svc.Wipe(ctx))
	_, err = svc.GetByID(ctx, "F001")
	assert.ErrorIs(t, err, ErrNotFound)
}
