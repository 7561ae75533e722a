package faculty

import (
	"io"

	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
)

// faculty import column mapping
const (
	colFacultyID = "faculty_id"
	colName      = "name"
	colPhone     = "phone_number"
	colEmail     = "email" // optional
)

// ParseFacultyCSV maps an uploaded CSV to Faculty rows. The login PIN is
// seeded from the last 4 digits of the phone number at import time; only its
// bcrypt hash is kept. The whole file is rejected on any duplicate faculty_id.
func ParseFacultyCSV(r io.Reader) ([]Faculty, error) {
	rows, err := core.ReadCSVRows(r, colFacultyID, colName, colPhone)
	if err != nil {
		return nil, err
	}
	if err = core.CheckDuplicateIDs(rows, colFacultyID); err != nil {
		return nil, err
	}

	members := make([]Faculty, 0, len(rows))
	var badPhones []core.FieldError
	for _, row := range rows {
		fac := Faculty{
			FacultyID:   row[colFacultyID],
			Name:        row[colName],
			Email:       row[colEmail],
			PhoneNumber: row[colPhone],
		}
		if len(fac.PhoneNumber) < 4 {
			badPhones = append(badPhones, core.FieldError{
				Field: fac.FacultyID,
				Error: "phone_number must have at least 4 digits to seed the PIN",
			})
			continue
		}
		if err := fac.SetPIN(fac.PhoneNumber[len(fac.PhoneNumber)-4:]); err != nil {
			return nil, errors.Wrap(err, "hashing PIN")
		}
		members = append(members, fac)
	}
	if badPhones != nil {
		return nil, core.NewValidationError(errors.New("some rows have unusable phone numbers"), badPhones...)
	}
	return members, nil
}

// FacultyTemplateCSV is the downloadable import template.
func FacultyTemplateCSV() []byte {
	return core.TemplateCSV(
		[]string{colFacultyID, colName, colPhone},
		[]string{"F001", "Dr. Alan Turing", "9876543210"},
	)
}
