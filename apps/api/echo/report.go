package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/report"
	exportsvc "github.com/nileshsabnis10/attendance/services/export"
)

type reportApi struct {
	deps ServerDeps
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{deps: deps}

	rg := g.Group("/reports", jwt, facultyMiddleware())
	rg.GET("/course-summary", api.courseSummary)
	rg.GET("/class-history", api.classHistory)
	rg.GET("/monthly-summary", api.monthlySummary)
	rg.GET("/monthly-summary/export", api.exportMonthlySummary)
	rg.POST("/defaulters/email", api.emailDefaulters, adminMiddleware())
}

type (
	reportQuery struct {
		core.Scope
		MonthQuery
		// Threshold overrides the configured defaulter cutoff; zero keeps the
		// default.
		Threshold float64 `query:"threshold"`
	}

	classHistoryResponse struct {
		History      []report.HistoryRow          `json:"history"`
		Distribution []report.DistributionBucket  `json:"distribution"`
	}

	monthlySummaryResponse struct {
		Month      string             `json:"month_yyyy_mm"`
		Pivot      report.PivotTable  `json:"pivot"`
		Threshold  float64            `json:"threshold"`
		Defaulters []report.Defaulter `json:"defaulters"`
	}

	emailDefaultersRequest struct {
		core.Scope
		MonthQuery
		Threshold float64  `json:"threshold"`
		To        []string `json:"to" validate:"required,min=1,dive,email"`
	}
)

func (api *reportApi) courseSummary(ctx echo.Context) error {
	var q reportQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	monthKey, err := q.resolve()
	if err != nil {
		return err
	}
	summary, err := api.deps.ReportSvc.CourseSummary(ctx.Request().Context(), q.Scope, monthKey)
	if err != nil {
		return errors.Wrap(err, "querying course summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *reportApi) classHistory(ctx echo.Context) error {
	var q scopeQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	history, err := api.deps.ReportSvc.ClassHistory(ctx.Request().Context(), q.Scope)
	if err != nil {
		return errors.Wrap(err, "querying class history")
	}
	return ctx.JSON(http.StatusOK, classHistoryResponse{
		History:      history,
		Distribution: report.Distribution(history),
	})
}

func (api *reportApi) monthlyReport(ctx echo.Context, q reportQuery) (monthlySummaryResponse, error) {
	monthKey, err := q.resolve()
	if err != nil {
		return monthlySummaryResponse{}, err
	}
	pivot, defaulters, err := api.deps.ReportSvc.MonthlyReport(ctx.Request().Context(), q.Scope, monthKey, q.Threshold)
	if err != nil {
		return monthlySummaryResponse{}, errors.Wrap(err, "building monthly report")
	}
	threshold := q.Threshold
	if threshold == 0 {
		threshold = api.deps.ReportSvc.DefaultThreshold()
	}
	return monthlySummaryResponse{
		Month: monthKey, Pivot: pivot, Threshold: threshold, Defaulters: defaulters,
	}, nil
}

func (api *reportApi) monthlySummary(ctx echo.Context) error {
	var q reportQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	resp, err := api.monthlyReport(ctx, q)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *reportApi) exportMonthlySummary(ctx echo.Context) error {
	var q reportQuery
	if err := bindValidated(ctx, api.deps, &q); err != nil {
		return err
	}
	resp, err := api.monthlyReport(ctx, q)
	if err != nil {
		return err
	}
	buf, err := exportsvc.Excel("Summary "+resp.Month, exportsvc.Table(resp.Pivot))
	if err != nil {
		return errors.Wrap(err, "exporting monthly summary")
	}
	filename := fmt.Sprintf("monthly_summary_%s.xlsx", resp.Month)
	return xlsxAttachment(ctx, filename, buf.Bytes())
}

// emailDefaulters mails the defaulter list as an xlsx attachment.
func (api *reportApi) emailDefaulters(ctx echo.Context) error {
	var data emailDefaultersRequest
	if err := bindValidated(ctx, api.deps, &data); err != nil {
		return err
	}
	resp, err := api.monthlyReport(ctx, reportQuery{Scope: data.Scope, MonthQuery: data.MonthQuery, Threshold: data.Threshold})
	if err != nil {
		return err
	}

	table := exportsvc.Table{
		Columns: []string{"PRN", "Name", "Total Held", "Total Attended", "%"},
	}
	for _, d := range resp.Defaulters {
		table.Rows = append(table.Rows, []string{
			d.PRN, d.StudentName,
			strconv.Itoa(d.TotalHeld), strconv.Itoa(d.TotalAttended),
			fmt.Sprintf("%.2f", d.Percent),
		})
	}
	buf, err := exportsvc.Excel("Defaulters "+resp.Month, table)
	if err != nil {
		return errors.Wrap(err, "exporting defaulters")
	}

	to := make([]mail.Address, 0, len(data.To))
	for _, addr := range data.To {
		to = append(to, mail.Address{Address: addr})
	}
	api.deps.EmailSvc.SendMessages(&core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Defaulter report - %s (below %.0f%%)", resp.Month, resp.Threshold),
		BodyStr: fmt.Sprintf("%d student(s) are below the %.0f%% attendance threshold for %s. The full list is attached.",
			len(resp.Defaulters), resp.Threshold, resp.Month),
		Attachments: []core.Attachment{{
			Content:     bytes.NewBuffer(buf.Bytes()),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    fmt.Sprintf("defaulters_%s.xlsx", resp.Month),
		}},
	})
	return ctx.JSON(http.StatusOK, successResponse{Success: "defaulter report queued for delivery"})
}
