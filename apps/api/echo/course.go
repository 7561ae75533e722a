package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/audit"
	"github.com/nileshsabnis10/attendance/core/course"
)

type courseApi struct {
	deps ServerDeps
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{deps: deps}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.GET("/assigned", api.assigned, facultyMiddleware())
	cg.GET("/template", api.template)
	cg.POST("/import", api.importCourses, adminMiddleware())
	cg.GET("/:code/enrollment", api.getEnrollment, facultyMiddleware())
	cg.PUT("/:code/enrollment", api.setEnrollment, facultyMiddleware())
}

type (
	enrollmentResponse struct {
		Course course.Key `json:"course"`
		// StudentIDs is the explicit override set; empty means the full
		// roster is enrolled.
		StudentIDs []string `json:"student_ids"`
	}

	setEnrollmentRequest struct {
		core.Scope
		StudentIDs []string `json:"student_ids"`
	}
)

func (api *courseApi) query(ctx echo.Context) error {
	var q scopeQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	courses, err := api.deps.CourseSvc.Courses(ctx.Request().Context(), q.Scope)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

// assigned lists the authenticated faculty member's courses across scopes.
func (api *courseApi) assigned(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	courses, err := api.deps.CourseSvc.Assigned(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying assigned courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) template(ctx echo.Context) error {
	return csvAttachment(ctx, "courses_template.csv", course.CoursesTemplateCSV())
}

func (api *courseApi) importCourses(ctx echo.Context) error {
	scope, err := bindScopeParams(ctx, api.deps)
	if err != nil {
		return err
	}
	upload, err := openUpload(ctx)
	if err != nil {
		return err
	}
	defer upload.Close()

	courses, err := course.ParseCoursesCSV(upload, scope)
	if err != nil {
		return err
	}
	if err = api.deps.CourseSvc.Import(ctx.Request().Context(), courses); err != nil {
		return err
	}

	claims, _ := getContextClaims(ctx)
	api.deps.Auditor.Log(ctx.Request().Context(), claims.Subject, audit.ActionBulkImport, map[string]interface{}{
		"entity": "courses", "count": len(courses),
	})
	return ctx.JSON(http.StatusOK, importResponse{Imported: len(courses)})
}

func (api *courseApi) getEnrollment(ctx echo.Context) error {
	var q scopeQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	key := course.Key{CourseCode: ctx.Param("code"), Scope: q.Scope}

	ids, err := api.deps.CourseSvc.EnrolledIDs(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "querying enrollment")
	}
	return ctx.JSON(http.StatusOK, enrollmentResponse{Course: key, StudentIDs: ids})
}

func (api *courseApi) setEnrollment(ctx echo.Context) error {
	var data setEnrollmentRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	key := course.Key{CourseCode: ctx.Param("code"), Scope: data.Scope}

	if err := api.deps.CourseSvc.SetEnrollment(ctx.Request().Context(), key, data.StudentIDs); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enrollmentResponse{Course: key, StudentIDs: data.StudentIDs})
}
