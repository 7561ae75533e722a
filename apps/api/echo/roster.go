package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core/audit"
	"github.com/nileshsabnis10/attendance/core/roster"
)

type rosterApi struct {
	deps ServerDeps
}

func registerRosterAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := rosterApi{deps: deps}

	dg := g.Group("/departments", jwt)
	dg.GET("", api.queryDepartments)
	dg.POST("", api.createDepartment, adminMiddleware())

	sg := g.Group("/sections", jwt)
	sg.GET("", api.querySections)
	sg.POST("", api.createSection, adminMiddleware())

	stg := g.Group("/students", jwt)
	stg.GET("", api.queryRoster)
	stg.GET("/template", api.template)
	stg.POST("/import", api.importStudents, adminMiddleware())
}

type (
	createDepartmentRequest struct {
		Name string `json:"name" validate:"required"`
	}

	sectionsQuery struct {
		DepartmentID int    `query:"department_id" validate:"required"`
		ClassName    string `query:"class_name" validate:"required"`
	}

	importResponse struct {
		Imported int `json:"imported"`
	}
)

func (api *rosterApi) queryDepartments(ctx echo.Context) error {
	depts, err := api.deps.RosterSvc.Departments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *rosterApi) createDepartment(ctx echo.Context) error {
	var data createDepartmentRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	dept, err := api.deps.RosterSvc.CreateDepartment(ctx.Request().Context(), data.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *rosterApi) querySections(ctx echo.Context) error {
	var q sectionsQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	sections, err := api.deps.RosterSvc.Sections(ctx.Request().Context(), q.DepartmentID, q.ClassName)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *rosterApi) createSection(ctx echo.Context) error {
	var data scopeQuery
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	if err := api.deps.RosterSvc.CreateSection(ctx.Request().Context(), data.Scope); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *rosterApi) queryRoster(ctx echo.Context) error {
	var q scopeQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	students, err := api.deps.RosterSvc.Roster(ctx.Request().Context(), q.Scope)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *rosterApi) template(ctx echo.Context) error {
	return csvAttachment(ctx, "students_template.csv", roster.StudentsTemplateCSV())
}

func (api *rosterApi) importStudents(ctx echo.Context) error {
	scope, err := bindScopeParams(ctx, api.deps)
	if err != nil {
		return err
	}
	upload, err := openUpload(ctx)
	if err != nil {
		return err
	}
	defer upload.Close()

	students, err := roster.ParseStudentsCSV(upload, scope)
	if err != nil {
		return err
	}
	if err = api.deps.RosterSvc.ImportStudents(ctx.Request().Context(), students); err != nil {
		return err
	}

	claims, _ := getContextClaims(ctx)
	api.deps.Auditor.Log(ctx.Request().Context(), claims.Subject, audit.ActionBulkImport, map[string]interface{}{
		"entity": "students", "count": len(students),
	})
	return ctx.JSON(http.StatusOK, importResponse{Imported: len(students)})
}
