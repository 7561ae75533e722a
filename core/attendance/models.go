package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/roster"
)

// Status of a persisted attendance row. It is always set and read as a uniform
// batch value across every row sharing the same (course, month, section) key.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusLocked Status = "LOCKED"
)

// GroupState is the lifecycle state of a month's attendance as a whole.
type GroupState string

const (
	StateNotStarted GroupState = "NOT_STARTED"
	StateDraft      GroupState = GroupState(StatusDraft)
	StateLocked     GroupState = GroupState(StatusLocked)
)

// Key identifies one month's attendance for a course.
type Key struct {
	course.Key
	MonthKey string `json:"month_yyyy_mm" db:"month_yyyy_mm"`
}

func (k Key) String() string {
	return k.Key.String() + ":" + k.MonthKey
}

// Record is a persisted attendance row.
type Record struct {
	Key
	StudentID    string    `json:"student_id" db:"student_id"`
	LecturesHeld int       `json:"lectures_held" db:"lectures_held"`
	Attended     int       `json:"attended" db:"attended"`
	Status       Status    `json:"status" db:"status"`
	Remarks      string    `json:"remarks" db:"remarks"`
	UpdatedBy    string    `json:"updated_by_faculty_id" db:"updated_by_faculty_id"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Row is one line of the editable grid handed to the faculty. Percent is
// derived, never persisted or independently edited.
type Row struct {
	StudentID    string  `json:"student_id"`
	PRN          string  `json:"prn"`
	Name         string  `json:"name"`
	LecturesHeld int     `json:"lectures_held"`
	Attended     int     `json:"attended"`
	Percent      float64 `json:"percent"`
	Status       Status  `json:"status"`
	Remarks      string  `json:"remarks"`
}

// Percent derives the attendance percentage; 0 when no lectures were held.
func Percent(attended, lecturesHeld int) float64 {
	if lecturesHeld <= 0 {
		return 0
	}
	return float64(attended) / float64(lecturesHeld) * 100
}

// BuildGrid merges the effective roster with any previously persisted rows:
// every student gets a default row (the session's lectures-held value,
// attended 0, DRAFT, empty remarks), then persisted values overlay the
// defaults per student. A student with no persisted row keeps the defaults; a
// persisted row with no roster student is dropped. The merge is idempotent:
// the same inputs always reproduce the same grid.
func BuildGrid(students []roster.Student, persisted []Record, sessionLectures int) []Row {
	byStudent := make(map[string]Record, len(persisted))
	for _, rec := range persisted {
		byStudent[rec.StudentID] = rec
	}

	grid := make([]Row, 0, len(students))
	for _, s := range students {
		row := Row{
			StudentID:    s.StudentID,
			PRN:          s.PRN,
			Name:         s.Name,
			LecturesHeld: sessionLectures,
			Attended:     0,
			Status:       StatusDraft,
			Remarks:      "",
		}
		if rec, ok := byStudent[s.StudentID]; ok {
			row.LecturesHeld = rec.LecturesHeld
			row.Attended = rec.Attended
			row.Status = rec.Status
			row.Remarks = rec.Remarks
		}
		row.Percent = Percent(row.Attended, row.LecturesHeld)
		grid = append(grid, row)
	}
	return grid
}

// GridState reports the lifecycle state a set of persisted rows is in.
func GridState(persisted []Record) GroupState {
	if len(persisted) == 0 {
		return StateNotStarted
	}
	for _, rec := range persisted {
		if rec.Status == StatusLocked {
			return StateLocked
		}
	}
	return StateDraft
}

// ValidateRows checks the attended <= lectures_held invariant (and
// non-negativity) for every row, collecting all violations instead of stopping
// at the first. Any violation blocks the entire batch.
func ValidateRows(rows []Row) error {
	var fldErrs []core.FieldError
	for _, row := range rows {
		switch {
		case row.LecturesHeld < 0:
			fldErrs = append(fldErrs, core.FieldError{
				Field: row.StudentID,
				Error: fmt.Sprintf("for %s, lectures held (%d) cannot be negative", row.Name, row.LecturesHeld),
			})
		case row.Attended < 0:
			fldErrs = append(fldErrs, core.FieldError{
				Field: row.StudentID,
				Error: fmt.Sprintf("for %s, attended (%d) cannot be negative", row.Name, row.Attended),
			})
		case row.Attended > row.LecturesHeld:
			fldErrs = append(fldErrs, core.FieldError{
				Field: row.StudentID,
				Error: fmt.Sprintf("for %s, attended (%d) cannot exceed lectures held (%d)", row.Name, row.Attended, row.LecturesHeld),
			})
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(errors.New("one or more rows are invalid; nothing was saved"), fldErrs...)
	}
	return nil
}

// MonthKey derives the deterministic 6-character "YYYYMM" token from a month
// name. A zero year means the current year.
func MonthKey(monthName string, year int) (string, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	for i, name := range core.MonthNames {
		if strings.EqualFold(name, monthName) {
			return fmt.Sprintf("%04d%02d", year, i+1), nil
		}
	}
	return "", core.NewValidationError(
		errors.Errorf("unknown month name %q", monthName),
		core.FieldError{Field: "month", Error: "not a valid month name"},
	)
}

// RecentMonthKeys returns the month keys (and display names) of the n months
// ending at ref, most recent first. Used by the faculty dashboard summary.
func RecentMonthKeys(ref time.Time, n int) []MonthRef {
	refs := make([]MonthRef, 0, n)
	y, m := ref.Year(), int(ref.Month())
	for i := 0; i < n; i++ {
		refs = append(refs, MonthRef{
			MonthKey:    fmt.Sprintf("%04d%02d", y, m),
			DisplayName: fmt.Sprintf("%s %d", core.MonthNames[m-1], y),
		})
		m--
		if m == 0 {
			m = 12
			y--
		}
	}
	return refs
}

type MonthRef struct {
	MonthKey    string `json:"month_yyyy_mm"`
	DisplayName string `json:"display_name"`
}
