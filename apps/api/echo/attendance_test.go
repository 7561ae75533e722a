package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/roster"
)

var attTestScope = core.Scope{DepartmentID: 1, ClassName: "Third Year", Section: "A"}

func attendancePath(path, monthKey string) string {
	q := url.Values{}
	q.Set("department_id", "1")
	q.Set("class_name", attTestScope.ClassName)
	q.Set("section", attTestScope.Section)
	q.Set("course_code", "CS301")
	if monthKey != "" {
		q.Set("month_yyyy_mm", monthKey)
	}
	return path + "?" + q.Encode()
}

func attendanceBody(t *testing.T, monthKey string, extra map[string]interface{}) []byte {
	body := map[string]interface{}{
		"department_id": attTestScope.DepartmentID,
		"class_name":    attTestScope.ClassName,
		"section":       attTestScope.Section,
		"course_code":   "CS301",
		"month_yyyy_mm": monthKey,
	}
	for k, v := range extra {
		body[k] = v
	}
	return marchallObj(t, body)
}

func setUpAttendanceEnv(t *testing.T) (*testEnv, string) {
	env := newTestEnv()
	member := env.seedFaculty(t, "F001", "Dr. Alan Turing", "3210")
	env.seedCourse(t, course.Key{CourseCode: "CS301", Scope: attTestScope}, "Operating Systems", "F001")
	env.seedStudents(t, attTestScope,
		roster.Student{StudentID: "S1", PRN: "101", Name: "Asha"},
		roster.Student{StudentID: "S2", PRN: "102", Name: "Bilal"},
	)
	return env, env.facultyToken(t, member)
}

func TestAttendanceGrid(t *testing.T) {
	env, token := setUpAttendanceEnv(t)

	t.Run("requires a token", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, attendancePath("/v1/attendance/grid", "202509"))
		checkCodeAndData(t, tt, env.do(req, rec))
	})

	t.Run("defaults for an untouched month", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, attendancePath("/v1/attendance/grid", "202509")+"&session_lectures=12", token)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp gridResponse
		env.decode(t, rec, &resp)
		assert.Equal(t, "202509", resp.Month)
		assert.Equal(t, attendance.StateNotStarted, resp.State)
		assert.Len(t, resp.Rows, 2)
		assert.Equal(t, "S1", resp.Rows[0].StudentID)
		assert.Equal(t, 12, resp.Rows[0].LecturesHeld)
		assert.Zero(t, resp.Rows[0].Attended)
	})

	t.Run("month name resolves to a key", func(t *testing.T) {
		path := attendancePath("/v1/attendance/grid", "") + "&month=September&year=2025"
		req, rec := newAuthRequest(http.MethodGet, path, token)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp gridResponse
		env.decode(t, rec, &resp)
		assert.Equal(t, "202509", resp.Month)
	})

	t.Run("missing month is a validation error", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, attendancePath("/v1/attendance/grid", ""), token)
		env.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enrollment override restricts the grid", func(t *testing.T) {
		key := course.Key{CourseCode: "CS301", Scope: attTestScope}
		assert.NoError(t, env.deps.CourseSvc.SetEnrollment(context.Background(), key, []string{"S2"}))
		defer func() {
			assert.NoError(t, env.deps.CourseSvc.SetEnrollment(context.Background(), key, nil))
		}()

		req, rec := newAuthRequest(http.MethodGet, attendancePath("/v1/attendance/grid", "202509"), token)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp gridResponse
		env.decode(t, rec, &resp)
		assert.Len(t, resp.Rows, 1)
		assert.Equal(t, "S2", resp.Rows[0].StudentID)
	})
}

func TestAttendanceSaveAndLockFlow(t *testing.T) {
	env, token := setUpAttendanceEnv(t)
	adminToken := env.adminToken(t)

	rows := []map[string]interface{}{
		{"student_id": "S1", "name": "Asha", "lectures_held": 10, "attended": 9},
		{"student_id": "S2", "name": "Bilal", "lectures_held": 10, "attended": 7},
	}

	t.Run("save draft", func(t *testing.T) {
		body := attendanceBody(t, "202509", map[string]interface{}{"rows": rows, "target_status": "DRAFT"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp successResponse
		env.decode(t, rec, &resp)
		assert.Equal(t, "attendance saved as draft", resp.Success)
	})

	t.Run("invalid rows reject the whole batch", func(t *testing.T) {
		bad := []map[string]interface{}{
			{"student_id": "S1", "name": "Asha", "lectures_held": 10, "attended": 11},
		}
		body := attendanceBody(t, "202509", map[string]interface{}{"rows": bad, "target_status": "DRAFT"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "attended (11) cannot exceed lectures held (10)")
	})

	t.Run("locking without a token is rejected", func(t *testing.T) {
		body := attendanceBody(t, "202509", map[string]interface{}{"rows": rows, "target_status": "LOCKED"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "confirmation token")
	})

	var lockToken string
	t.Run("lock request issues a confirmation token", func(t *testing.T) {
		body := attendanceBody(t, "202509", nil)
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/lock-request", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp confirmResponse
		env.decode(t, rec, &resp)
		assert.NotEmpty(t, resp.ID)
		lockToken = resp.ID
	})

	t.Run("confirmed lock persists", func(t *testing.T) {
		body := attendanceBody(t, "202509", map[string]interface{}{
			"rows": rows, "target_status": "LOCKED", "confirm_token": lockToken,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp successResponse
		env.decode(t, rec, &resp)
		assert.Equal(t, "attendance submitted and locked", resp.Success)
	})

	t.Run("a locked month rejects saves", func(t *testing.T) {
		body := attendanceBody(t, "202509", map[string]interface{}{"rows": rows, "target_status": "DRAFT"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "LOCKED")
	})

	t.Run("unlock is admin-only", func(t *testing.T) {
		body := attendanceBody(t, "202509", map[string]interface{}{"confirm_token": "whatever"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/unlock", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	var unlockToken string
	t.Run("unlock request issues a confirmation token", func(t *testing.T) {
		body := attendanceBody(t, "202509", nil)
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/unlock-request", token, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp confirmResponse
		env.decode(t, rec, &resp)
		unlockToken = resp.ID
	})

	t.Run("confirmed unlock returns the month to draft", func(t *testing.T) {
		body := attendanceBody(t, "202509", map[string]interface{}{"confirm_token": unlockToken})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/unlock", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		gridReq, gridRec := newAuthRequest(http.MethodGet, attendancePath("/v1/attendance/grid", "202509"), token)
		env.do(gridReq, gridRec)
		var resp gridResponse
		env.decode(t, gridRec, &resp)
		assert.Equal(t, attendance.StateDraft, resp.State)
		assert.Equal(t, 9, resp.Rows[0].Attended) // values survive the lock cycle
	})
}

func TestAttendanceStatusSummary(t *testing.T) {
	env, token := setUpAttendanceEnv(t)

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/status-summary?months=2", token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary []attendance.CourseMonthState
	env.decode(t, rec, &summary)
	assert.Len(t, summary, 2) // 1 assigned course x 2 months
	for _, cm := range summary {
		assert.Equal(t, "CS301", cm.Course.CourseCode)
		assert.Equal(t, attendance.StateNotStarted, cm.State)
	}
}

func TestAttendanceExport(t *testing.T) {
	env, token := setUpAttendanceEnv(t)

	req, rec := newAuthRequest(http.MethodGet, attendancePath("/v1/attendance/export", "202509")+"&session_lectures=10", token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_CS301_202509.xlsx")
	assert.NotZero(t, rec.Body.Len())
}
