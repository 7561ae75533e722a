package main

import (
	"context"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/faculty"
)

// addFaculty updates or creates a faculty.Faculty.
func (cli *commandLine) addFaculty(id, name, phone, email, pin string) error {
	ctx := context.Background()
	id = core.CleanString(id)
	name = core.CleanString(name)

	member, err := cli.facultyRepo.GetFaculty(ctx, id)
	if err != nil {
		if err != faculty.ErrNotFound {
			return err
		}
		member = faculty.Faculty{FacultyID: id}
	}
	member.Name = name
	member.PhoneNumber = core.CleanString(phone)
	member.Email = core.CleanString(email, true /* lower */)
	if err := member.SetPIN(pin); err != nil {
		return err
	}
	return cli.facultyRepo.UpsertFaculty(ctx, []faculty.Faculty{member})
}
