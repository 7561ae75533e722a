package inmemdb

import (
	"context"
	"math"
	"sort"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// scopedRecords returns every record of the scope, optionally limited to one
// month, with the lock held by the caller.
func (repo *reportRepository) scopedRecords(scope core.Scope, monthKey string) []attendance.Record {
	recs := make([]attendance.Record, 0)
	for _, group := range repo.db.attendance {
		for _, rec := range group {
			if rec.Scope != scope {
				continue
			}
			if monthKey != "" && rec.MonthKey != monthKey {
				continue
			}
			recs = append(recs, *rec)
		}
	}
	return recs
}

func (repo *reportRepository) CourseWiseSummary(ctx context.Context, scope core.Scope, monthKey string) ([]report.CourseSummary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	type acc struct {
		sum float64
		n   int
	}
	byCourse := make(map[string]*acc)
	for _, rec := range repo.scopedRecords(scope, monthKey) {
		crs, ok := repo.db.courses[rec.Key.Key.String()]
		if !ok {
			continue
		}
		a, ok := byCourse[crs.CourseName]
		if !ok {
			a = &acc{}
			byCourse[crs.CourseName] = a
		}
		a.sum += attendance.Percent(rec.Attended, rec.LecturesHeld)
		a.n++
	}

	summaries := make([]report.CourseSummary, 0, len(byCourse))
	for name, a := range byCourse {
		summaries = append(summaries, report.CourseSummary{
			CourseName:        name,
			AverageAttendance: round2(a.sum / float64(a.n)),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CourseName < summaries[j].CourseName })
	return summaries, nil
}

func (repo *reportRepository) FullClassHistory(ctx context.Context, scope core.Scope) ([]report.HistoryRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	type acc struct {
		name, prn      string
		held, attended int
	}
	type groupKey struct{ studentID, monthKey string }
	totals := make(map[groupKey]*acc)
	for _, rec := range repo.scopedRecords(scope, "") {
		st, ok := repo.db.students[rec.StudentID]
		if !ok || !st.IsActive {
			continue
		}
		gk := groupKey{rec.StudentID, rec.MonthKey}
		a, ok := totals[gk]
		if !ok {
			a = &acc{name: st.Name, prn: st.PRN}
			totals[gk] = a
		}
		a.held += rec.LecturesHeld
		a.attended += rec.Attended
	}

	type sortable struct {
		report.HistoryRow
		prn string
	}
	rows := make([]sortable, 0, len(totals))
	for gk, a := range totals {
		rows = append(rows, sortable{
			HistoryRow: report.HistoryRow{
				StudentName:       a.name,
				MonthKey:          gk.monthKey,
				AttendancePercent: round2(attendance.Percent(a.attended, a.held)),
			},
			prn: a.prn,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MonthKey != rows[j].MonthKey {
			return rows[i].MonthKey < rows[j].MonthKey
		}
		return rows[i].prn < rows[j].prn
	})

	out := make([]report.HistoryRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.HistoryRow)
	}
	return out, nil
}

func (repo *reportRepository) DetailedMonthlySummary(ctx context.Context, scope core.Scope, monthKey string) ([]report.SummaryRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]report.SummaryRow, 0)
	for _, rec := range repo.scopedRecords(scope, monthKey) {
		st, ok := repo.db.students[rec.StudentID]
		if !ok || !st.IsActive {
			continue
		}
		crs, ok := repo.db.courses[rec.Key.Key.String()]
		if !ok {
			continue
		}
		rows = append(rows, report.SummaryRow{
			StudentID:    rec.StudentID,
			PRN:          st.PRN,
			StudentName:  st.Name,
			CourseName:   crs.CourseName,
			LecturesHeld: rec.LecturesHeld,
			Attended:     rec.Attended,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PRN != rows[j].PRN {
			return rows[i].PRN < rows[j].PRN
		}
		return rows[i].CourseName < rows[j].CourseName
	})
	return rows, nil
}
