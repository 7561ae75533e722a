package echoapi

import (
	"io"
	"mime/multipart"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/course"
)

const uploadFormField = "file"

type (
	// scopeQuery binds the explicit scope parameters every scoped endpoint
	// requires.
	scopeQuery struct {
		core.Scope
	}

	// MonthQuery resolves a month either from a YYYYMM key or from a month
	// name plus optional year.
	MonthQuery struct {
		MonthKey  string `json:"month_yyyy_mm" query:"month_yyyy_mm" validate:"omitempty,monthkey"`
		MonthName string `json:"month" query:"month" validate:"omitempty,monthname"`
		Year      int    `json:"year" query:"year"`
	}

	// AttendanceQuery identifies one (course, month) attendance group.
	AttendanceQuery struct {
		core.Scope
		CourseCode string `json:"course_code" query:"course_code" validate:"required"`
		MonthQuery
	}
)

func (q *MonthQuery) resolve() (string, error) {
	if q.MonthKey != "" {
		return q.MonthKey, nil
	}
	if q.MonthName == "" {
		return "", core.NewValidationError(nil,
			core.FieldError{Field: "month", Error: "either month_yyyy_mm or month is required"})
	}
	key, err := attendance.MonthKey(q.MonthName, q.Year)
	if err != nil {
		return "", core.NewValidationError(err, core.FieldError{Field: "month", Error: err.Error()})
	}
	return key, nil
}

func (q *AttendanceQuery) key() (attendance.Key, error) {
	monthKey, err := q.resolve()
	if err != nil {
		return attendance.Key{}, err
	}
	return attendance.Key{
		Key:      course.Key{CourseCode: q.CourseCode, Scope: q.Scope},
		MonthKey: monthKey,
	}, nil
}

// bindScopeParams reads the scope from query parameters. POST endpoints use
// it because the binder only maps query tags on GET and DELETE.
func bindScopeParams(ctx echo.Context, deps ServerDeps) (core.Scope, error) {
	deptID, _ := strconv.Atoi(ctx.QueryParam("department_id"))
	scope := core.Scope{
		DepartmentID: deptID,
		ClassName:    ctx.QueryParam("class_name"),
		Section:      ctx.QueryParam("section"),
	}
	if err := deps.Validate.Struct(&scope); err != nil {
		return core.Scope{}, err
	}
	return scope, nil
}

// bindValidated binds the request into dest and runs struct validation.
func bindValidated(ctx echo.Context, deps ServerDeps, dest interface{}) error {
	if err := ctx.Bind(dest); err != nil {
		return errors.Wrap(err, "binding request")
	}
	if err := deps.Validate.Struct(dest); err != nil {
		return err
	}
	return nil
}

// openUpload returns the uploaded CSV: the multipart "file" field when
// present, the raw request body otherwise.
func openUpload(ctx echo.Context) (io.ReadCloser, error) {
	fh, err := ctx.FormFile(uploadFormField)
	if err != nil {
		// no multipart upload; fall back to the request body
		return ctx.Request().Body, nil
	}
	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return nil, errors.Wrap(err, "opening uploaded file")
	}
	return f, nil
}

func csvAttachment(ctx echo.Context, filename string, content []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(200, "text/csv", content)
}

func xlsxAttachment(ctx echo.Context, filename string, content []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
