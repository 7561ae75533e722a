package report

import (
	"fmt"
	"sort"

	"github.com/nileshsabnis10/attendance/core/attendance"
)

type (
	// CourseSummary is the per-course monthly average.
	CourseSummary struct {
		CourseName        string  `json:"course_name" db:"course_name"`
		AverageAttendance float64 `json:"average_attendance" db:"average_attendance"`
	}

	// HistoryRow is one student's attendance percentage for one month.
	HistoryRow struct {
		StudentName       string  `json:"name" db:"name"`
		MonthKey          string  `json:"month_yyyy_mm" db:"month_yyyy_mm"`
		AttendancePercent float64 `json:"attendance_percent" db:"attendance_percent"`
	}

	// SummaryRow is one raw (student, course) measurement for a month, the
	// input to the pivot matrix and the defaulter filter.
	SummaryRow struct {
		StudentID    string `json:"student_id" db:"student_id"`
		PRN          string `json:"prn" db:"prn"`
		StudentName  string `json:"name" db:"name"`
		CourseName   string `json:"course_name" db:"course_name"`
		LecturesHeld int    `json:"lectures_held" db:"lectures_held"`
		Attended     int    `json:"attended" db:"attended"`
	}

	// Defaulter is a student whose overall percentage across all courses of
	// the month fell below the threshold.
	Defaulter struct {
		StudentID     string  `json:"student_id"`
		PRN           string  `json:"prn"`
		StudentName   string  `json:"name"`
		TotalHeld     int     `json:"total_held"`
		TotalAttended int     `json:"total_attended"`
		Percent       float64 `json:"percent"`
	}

	// PivotTable is the per-course-per-student matrix of attended counts.
	PivotTable struct {
		// Columns: "PRN", "Name", then one "CourseName (lectures_held)" per course.
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}

	// DistributionBucket counts students per performance band for one month.
	DistributionBucket struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}
)

// Defaulters aggregates every student's totals across all their courses in
// the month and keeps those strictly below threshold. A student with zero
// total lectures held counts as 0% and is a defaulter for any threshold > 0.
// The result is ordered by ascending percentage, then PRN.
func Defaulters(rows []SummaryRow, threshold float64) []Defaulter {
	totals := make(map[string]*Defaulter)
	order := make([]string, 0)
	for _, row := range rows {
		d, ok := totals[row.StudentID]
		if !ok {
			d = &Defaulter{StudentID: row.StudentID, PRN: row.PRN, StudentName: row.StudentName}
			totals[row.StudentID] = d
			order = append(order, row.StudentID)
		}
		d.TotalHeld += row.LecturesHeld
		d.TotalAttended += row.Attended
	}

	defaulters := make([]Defaulter, 0)
	for _, id := range order {
		d := totals[id]
		d.Percent = attendance.Percent(d.TotalAttended, d.TotalHeld)
		if d.Percent < threshold {
			defaulters = append(defaulters, *d)
		}
	}
	sort.SliceStable(defaulters, func(i, j int) bool {
		if defaulters[i].Percent != defaulters[j].Percent {
			return defaulters[i].Percent < defaulters[j].Percent
		}
		return defaulters[i].PRN < defaulters[j].PRN
	})
	return defaulters
}

// Pivot shapes the raw summary rows into a per-course-per-student matrix.
// Course columns carry the month's lectures-held count in the header; cells
// with no recorded value render as "-". Rows are ordered by PRN, columns by
// course name.
func Pivot(rows []SummaryRow) PivotTable {
	courseHeld := make(map[string]int)
	var courseNames []string
	for _, row := range rows {
		if _, ok := courseHeld[row.CourseName]; !ok {
			courseHeld[row.CourseName] = row.LecturesHeld
			courseNames = append(courseNames, row.CourseName)
		}
	}
	sort.Strings(courseNames)

	type studentCells struct {
		prn, name string
		attended  map[string]int
	}
	students := make(map[string]*studentCells)
	var studentIDs []string
	for _, row := range rows {
		sc, ok := students[row.StudentID]
		if !ok {
			sc = &studentCells{prn: row.PRN, name: row.StudentName, attended: make(map[string]int)}
			students[row.StudentID] = sc
			studentIDs = append(studentIDs, row.StudentID)
		}
		sc.attended[row.CourseName] = row.Attended
	}
	sort.SliceStable(studentIDs, func(i, j int) bool {
		return students[studentIDs[i]].prn < students[studentIDs[j]].prn
	})

	columns := make([]string, 0, len(courseNames)+2)
	columns = append(columns, "PRN", "Name")
	for _, name := range courseNames {
		columns = append(columns, fmt.Sprintf("%s (%d)", name, courseHeld[name]))
	}

	table := PivotTable{Columns: columns, Rows: make([][]string, 0, len(studentIDs))}
	for _, id := range studentIDs {
		sc := students[id]
		row := make([]string, 0, len(columns))
		row = append(row, sc.prn, sc.name)
		for _, name := range courseNames {
			if attended, ok := sc.attended[name]; ok {
				row = append(row, fmt.Sprintf("%d", attended))
			} else {
				row = append(row, "-")
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Distribution buckets one month's per-student percentages into the
// performance bands used by the class analytics view.
func Distribution(rows []HistoryRow) []DistributionBucket {
	buckets := []DistributionBucket{
		{Label: "Below 50% (High Risk)"},
		{Label: "50% - 75% (At Risk)"},
		{Label: "Above 75% (Good Standing)"},
	}
	for _, row := range rows {
		switch {
		case row.AttendancePercent < 50:
			buckets[0].Count++
		case row.AttendancePercent < 75:
			buckets[1].Count++
		default:
			buckets[2].Count++
		}
	}
	return buckets
}
