package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

var errBadDangerPassword = errors.New("danger zone disabled or wrong password")

// wipe deletes every record of the entity. Guarded by the danger-zone
// password; there is no way back.
func (cli *commandLine) wipe(entity, password string) error {
	configured := cli.conf.DangerZone.Password
	if configured == "" || subtle.ConstantTimeCompare([]byte(password), []byte(configured)) != 1 {
		return errBadDangerPassword
	}

	ctx := context.Background()
	switch entity {
	case "students":
		return cli.rosterRepo.DeleteAllStudents(ctx)
	case "faculty":
		return cli.facultyRepo.DeleteAllFaculty(ctx)
	case "courses":
		return cli.courseRepo.DeleteAllCourses(ctx)
	default:
		return fmt.Errorf("unknown entity %q", entity)
	}
}
