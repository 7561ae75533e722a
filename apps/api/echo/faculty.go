package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core/audit"
	"github.com/nileshsabnis10/attendance/core/faculty"
)

type facultyApi struct {
	deps ServerDeps
}

func registerFacultyAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := facultyApi{deps: deps}

	fg := g.Group("/faculty", jwt, adminMiddleware())
	fg.GET("", api.query)
	fg.GET("/template", api.template)
	fg.POST("/import", api.importFaculty)
}

func (api *facultyApi) query(ctx echo.Context) error {
	members, err := api.deps.FacultySvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying faculty")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *facultyApi) template(ctx echo.Context) error {
	return csvAttachment(ctx, "faculty_template.csv", faculty.FacultyTemplateCSV())
}

func (api *facultyApi) importFaculty(ctx echo.Context) error {
	upload, err := openUpload(ctx)
	if err != nil {
		return err
	}
	defer upload.Close()

	members, err := faculty.ParseFacultyCSV(upload)
	if err != nil {
		return err
	}
	if err = api.deps.FacultySvc.Import(ctx.Request().Context(), members); err != nil {
		return err
	}

	claims, _ := getContextClaims(ctx)
	api.deps.Auditor.Log(ctx.Request().Context(), claims.Subject, audit.ActionBulkImport, map[string]interface{}{
		"entity": "faculty", "count": len(members),
	})
	return ctx.JSON(http.StatusOK, importResponse{Imported: len(members)})
}
