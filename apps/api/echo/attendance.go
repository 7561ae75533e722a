package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/roster"
	exportsvc "github.com/nileshsabnis10/attendance/services/export"
)

const defaultSummaryMonths = 3

type attendanceApi struct {
	deps ServerDeps
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{deps: deps}

	ag := g.Group("/attendance", jwt, facultyMiddleware())
	ag.GET("/grid", api.grid)
	ag.POST("", api.save)
	ag.POST("/lock-request", api.requestLock)
	ag.POST("/unlock-request", api.requestUnlock)
	ag.POST("/unlock", api.unlock, adminMiddleware())
	ag.GET("/status-summary", api.statusSummary)
	ag.GET("/export", api.export)
}

type (
	gridQuery struct {
		AttendanceQuery
		// SessionLectures pre-fills lectures_held for students without a
		// persisted row.
		SessionLectures int `query:"session_lectures"`
	}

	gridResponse struct {
		Course course.Key           `json:"course"`
		Month  string               `json:"month_yyyy_mm"`
		State  attendance.GroupState `json:"state"`
		Rows   []attendance.Row     `json:"rows"`
	}

	saveRequest struct {
		AttendanceQuery
		Rows         []attendance.Row  `json:"rows"`
		Target       attendance.Status `json:"target_status" validate:"required"`
		ConfirmToken string            `json:"confirm_token"`
	}

	confirmResponse struct {
		core.PendingAction
	}

	successResponse struct {
		Success string `json:"success"`
	}
)

// effectiveRows resolves the students the grid covers: the scope roster
// restricted by the course's enrollment override.
func (api *attendanceApi) effectiveRoster(ctx echo.Context, key course.Key) ([]roster.Student, error) {
	reqCtx := ctx.Request().Context()
	students, err := api.deps.RosterSvc.Roster(reqCtx, key.Scope)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	override, err := api.deps.CourseSvc.EnrolledIDs(reqCtx, key)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollment")
	}
	return course.EffectiveRoster(override, students), nil
}

func (api *attendanceApi) grid(ctx echo.Context) error {
	var q gridQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	key, err := q.key()
	if err != nil {
		return err
	}

	students, err := api.effectiveRoster(ctx, key.Key)
	if err != nil {
		return err
	}
	rows, state, err := api.deps.AttendanceSvc.Grid(ctx.Request().Context(), key, students, q.SessionLectures)
	if err != nil {
		return errors.Wrap(err, "building grid")
	}
	return ctx.JSON(http.StatusOK, gridResponse{Course: key.Key, Month: key.MonthKey, State: state, Rows: rows})
}

func (api *attendanceApi) save(ctx echo.Context) error {
	var data saveRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	key, err := data.key()
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	err = api.deps.AttendanceSvc.Save(ctx.Request().Context(), claims.Subject, key, data.Rows, data.Target, data.ConfirmToken)
	if err != nil {
		return err
	}
	msg := "attendance saved as draft"
	if data.Target == attendance.StatusLocked {
		msg = "attendance submitted and locked"
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: msg})
}

func (api *attendanceApi) requestLock(ctx echo.Context) error {
	var q AttendanceQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	key, err := q.key()
	if err != nil {
		return err
	}
	action, err := api.deps.AttendanceSvc.RequestLock(ctx.Request().Context(), key)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, confirmResponse{PendingAction: action})
}

func (api *attendanceApi) requestUnlock(ctx echo.Context) error {
	var q AttendanceQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	key, err := q.key()
	if err != nil {
		return err
	}
	action, err := api.deps.AttendanceSvc.RequestUnlock(ctx.Request().Context(), key)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, confirmResponse{PendingAction: action})
}

type unlockRequest struct {
	AttendanceQuery
	ConfirmToken string `json:"confirm_token" validate:"required"`
}

func (api *attendanceApi) unlock(ctx echo.Context) error {
	var data unlockRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	key, err := data.key()
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err = api.deps.AttendanceSvc.Unlock(ctx.Request().Context(), claims.Subject, key, data.ConfirmToken); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: "attendance unlocked for editing"})
}

// statusSummary reports the lifecycle state of every (assigned course, recent
// month) pair for the dashboard.
func (api *attendanceApi) statusSummary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	months := defaultSummaryMonths
	if v := ctx.QueryParam("months"); v != "" {
		if n, convErr := strconv.Atoi(v); convErr == nil && n > 0 {
			months = n
		}
	}

	courses, err := api.deps.CourseSvc.Assigned(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying assigned courses")
	}
	summary, err := api.deps.AttendanceSvc.StatusSummary(
		ctx.Request().Context(), courses, attendance.RecentMonthKeys(time.Now(), months))
	if err != nil {
		return errors.Wrap(err, "building status summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) export(ctx echo.Context) error {
	var q gridQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	key, err := q.key()
	if err != nil {
		return err
	}

	students, err := api.effectiveRoster(ctx, key.Key)
	if err != nil {
		return err
	}
	rows, _, err := api.deps.AttendanceSvc.Grid(ctx.Request().Context(), key, students, q.SessionLectures)
	if err != nil {
		return errors.Wrap(err, "building grid")
	}

	table := exportsvc.Table{
		Columns: []string{"Student ID", "PRN", "Name", "Lectures Held", "Attended", "%", "Status", "Remarks"},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			row.StudentID, row.PRN, row.Name,
			strconv.Itoa(row.LecturesHeld), strconv.Itoa(row.Attended),
			fmt.Sprintf("%.2f", row.Percent), string(row.Status), row.Remarks,
		})
	}
	buf, err := exportsvc.Excel("Attendance "+key.MonthKey, table)
	if err != nil {
		return errors.Wrap(err, "exporting grid")
	}
	filename := fmt.Sprintf("attendance_%s_%s.xlsx", key.CourseCode, key.MonthKey)
	return xlsxAttachment(ctx, filename, buf.Bytes())
}
