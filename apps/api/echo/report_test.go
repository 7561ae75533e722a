package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/report"
	"github.com/nileshsabnis10/attendance/core/roster"
	emailsvc "github.com/nileshsabnis10/attendance/services/email"
)

// setUpReportEnv seeds one class with two courses and a saved September draft.
func setUpReportEnv(t *testing.T) (*testEnv, string) {
	env := newTestEnv()
	member := env.seedFaculty(t, "F001", "Dr. Alan Turing", "3210")
	env.seedStudents(t, attTestScope,
		roster.Student{StudentID: "S1", PRN: "101", Name: "Asha"},
		roster.Student{StudentID: "S2", PRN: "102", Name: "Bilal"},
	)
	env.seedCourse(t, course.Key{CourseCode: "CS301", Scope: attTestScope}, "Operating Systems", "F001")
	env.seedCourse(t, course.Key{CourseCode: "CS302", Scope: attTestScope}, "Database Systems", "F001")

	ctx := context.Background()
	save := func(code string, attended1, attended2 int) {
		key := attendance.Key{Key: course.Key{CourseCode: code, Scope: attTestScope}, MonthKey: "202509"}
		rows := []attendance.Row{
			{StudentID: "S1", Name: "Asha", LecturesHeld: 10, Attended: attended1},
			{StudentID: "S2", Name: "Bilal", LecturesHeld: 10, Attended: attended2},
		}
		if err := env.deps.AttendanceSvc.Save(ctx, "F001", key, rows, attendance.StatusDraft, ""); err != nil {
			t.Fatalf("setUpReportEnv() failed: %v", err)
		}
	}
	save("CS301", 9, 5)
	save("CS302", 8, 6)
	return env, env.facultyToken(t, member)
}

func TestReportCourseSummary(t *testing.T) {
	env, token := setUpReportEnv(t)

	path := "/v1/reports/course-summary?" + scopeParams(attTestScope) + "&month_yyyy_mm=202509"
	req, rec := newAuthRequest(http.MethodGet, path, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary []report.CourseSummary
	env.decode(t, rec, &summary)
	assert.Len(t, summary, 2)
	// ordered by course name
	assert.Equal(t, "Database Systems", summary[0].CourseName)
	assert.Equal(t, 70.0, summary[0].AverageAttendance) // avg of 80% and 60%
	assert.Equal(t, "Operating Systems", summary[1].CourseName)
	assert.Equal(t, 70.0, summary[1].AverageAttendance) // avg of 90% and 50%
}

func TestReportClassHistory(t *testing.T) {
	env, token := setUpReportEnv(t)

	path := "/v1/reports/class-history?" + scopeParams(attTestScope)
	req, rec := newAuthRequest(http.MethodGet, path, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp classHistoryResponse
	env.decode(t, rec, &resp)
	assert.Len(t, resp.History, 2)
	// per-student totals across both courses: Asha 17/20, Bilal 11/20
	assert.Equal(t, "Asha", resp.History[0].StudentName)
	assert.Equal(t, 85.0, resp.History[0].AttendancePercent)
	assert.Equal(t, 55.0, resp.History[1].AttendancePercent)

	assert.Len(t, resp.Distribution, 3)
	assert.Equal(t, 1, resp.Distribution[1].Count) // Bilal, at risk
	assert.Equal(t, 1, resp.Distribution[2].Count) // Asha, good standing
}

func TestReportMonthlySummary(t *testing.T) {
	env, token := setUpReportEnv(t)

	path := "/v1/reports/monthly-summary?" + scopeParams(attTestScope) + "&month_yyyy_mm=202509"
	req, rec := newAuthRequest(http.MethodGet, path, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp monthlySummaryResponse
	env.decode(t, rec, &resp)
	assert.Equal(t, "202509", resp.Month)
	assert.Equal(t, 75.0, resp.Threshold) // configured default
	assert.Equal(t, []string{"PRN", "Name", "Database Systems (10)", "Operating Systems (10)"}, resp.Pivot.Columns)
	assert.Len(t, resp.Pivot.Rows, 2)

	assert.Len(t, resp.Defaulters, 1)
	assert.Equal(t, "Bilal", resp.Defaulters[0].StudentName)
	assert.Equal(t, 55.0, resp.Defaulters[0].Percent)
}

func TestReportMonthlySummary_thresholdOverride(t *testing.T) {
	env, token := setUpReportEnv(t)

	path := "/v1/reports/monthly-summary?" + scopeParams(attTestScope) + "&month_yyyy_mm=202509&threshold=50"
	req, rec := newAuthRequest(http.MethodGet, path, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp monthlySummaryResponse
	env.decode(t, rec, &resp)
	assert.Equal(t, 50.0, resp.Threshold)
	assert.Empty(t, resp.Defaulters) // 55% clears a 50% bar
}

func TestReportMonthlySummaryExport(t *testing.T) {
	env, token := setUpReportEnv(t)

	path := "/v1/reports/monthly-summary/export?" + scopeParams(attTestScope) + "&month_yyyy_mm=202509"
	req, rec := newAuthRequest(http.MethodGet, path, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "monthly_summary_202509.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestReportEmailDefaulters(t *testing.T) {
	env, _ := setUpReportEnv(t)
	adminToken := env.adminToken(t)
	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	body := marchallObj(t, map[string]interface{}{
		"department_id": 1, "class_name": attTestScope.ClassName, "section": attTestScope.Section,
		"month_yyyy_mm": "202509",
		"to":            []string{"hod@sgu.edu"},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/reports/defaulters/email", adminToken, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "hod@sgu.edu", msg.To[0].Address)
	assert.Contains(t, msg.Subject, "202509")
	assert.Len(t, msg.Attachments, 1)
	assert.Equal(t, "defaulters_202509.xlsx", msg.Attachments[0].Filename)
}

func TestReportEmailDefaulters_badRecipient(t *testing.T) {
	env, _ := setUpReportEnv(t)

	body := marchallObj(t, map[string]interface{}{
		"department_id": 1, "class_name": attTestScope.ClassName, "section": attTestScope.Section,
		"month_yyyy_mm": "202509",
		"to":            []string{"not-an-email"},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/reports/defaulters/email", env.adminToken(t), body)
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
