package echoapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core/audit"
)

const actionWipe = "wipe"

// wipeable entities
const (
	entityStudents = "students"
	entityFaculty  = "faculty"
	entityCourses  = "courses"
)

type dangerApi struct {
	deps ServerDeps
}

func registerDangerAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dangerApi{deps: deps}

	dg := g.Group("/danger", jwt, adminMiddleware())
	dg.POST("/wipe-request", api.requestWipe)
	dg.POST("/wipe", api.wipe)
}

type wipeRequest struct {
	Entity         string `json:"entity" validate:"required,oneof=students faculty courses"`
	DangerPassword string `json:"danger_password" validate:"required"`
	ConfirmToken   string `json:"confirm_token"`
}

func (api *dangerApi) checkPassword(password string) error {
	configured := api.deps.Conf.DangerZone.Password
	if configured == "" {
		// danger zone disabled entirely
		return errHttpForbidden
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(configured)) != 1 {
		return errHttpForbidden
	}
	return nil
}

func (api *dangerApi) requestWipe(ctx echo.Context) error {
	var data wipeRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	if err := api.checkPassword(data.DangerPassword); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, confirmResponse{
		PendingAction: api.deps.Pending.Issue(actionWipe, data.Entity),
	})
}

func (api *dangerApi) wipe(ctx echo.Context) error {
	var data wipeRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	if err := api.checkPassword(data.DangerPassword); err != nil {
		return err
	}
	if err := api.deps.Pending.Confirm(data.ConfirmToken, actionWipe, data.Entity); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var err error
	switch data.Entity {
	case entityStudents:
		err = api.deps.RosterSvc.WipeStudents(reqCtx)
	case entityFaculty:
		err = api.deps.FacultySvc.Wipe(reqCtx)
	case entityCourses:
		err = api.deps.CourseSvc.Wipe(reqCtx)
	}
	if err != nil {
		return errors.Wrapf(err, "wiping %s", data.Entity)
	}

	claims, _ := getContextClaims(ctx)
	api.deps.Auditor.Log(reqCtx, claims.Subject, audit.ActionDangerZoneDelete, map[string]interface{}{
		"entity": data.Entity,
	})
	return ctx.JSON(http.StatusOK, successResponse{Success: "all " + data.Entity + " records deleted"})
}
