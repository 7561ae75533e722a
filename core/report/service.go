package report

import (
	"context"

	"github.com/nileshsabnis10/attendance/core"
)

type (
	// Repository is the aggregation collaborator. The heavy lifting - joins,
	// grouping, averaging - is delegated to the backing store; this package
	// only applies threshold and pivot shaping to the returned rows.
	Repository interface {
		CourseWiseSummary(ctx context.Context, scope core.Scope, monthKey string) ([]CourseSummary, error)
		FullClassHistory(ctx context.Context, scope core.Scope) ([]HistoryRow, error)
		DetailedMonthlySummary(ctx context.Context, scope core.Scope, monthKey string) ([]SummaryRow, error)
	}

	Service struct {
		repo Repository
		// defaultThreshold applies when the caller does not supply one.
		defaultThreshold float64
	}
)

func NewService(repo Repository, defaultThreshold float64) *Service {
	return &Service{repo: repo, defaultThreshold: defaultThreshold}
}

func (svc *Service) CourseSummary(ctx context.Context, scope core.Scope, monthKey string) ([]CourseSummary, error) {
	return svc.repo.CourseWiseSummary(ctx, scope, monthKey)
}

func (svc *Service) ClassHistory(ctx context.Context, scope core.Scope) ([]HistoryRow, error) {
	return svc.repo.FullClassHistory(ctx, scope)
}

func (svc *Service) MonthlySummary(ctx context.Context, scope core.Scope, monthKey string) ([]SummaryRow, error) {
	return svc.repo.DetailedMonthlySummary(ctx, scope, monthKey)
}

// MonthlyReport runs the detailed summary once and shapes it into the pivot
// matrix plus the defaulter list. A zero threshold selects the configured
// default.
func (svc *Service) MonthlyReport(ctx context.Context, scope core.Scope, monthKey string, threshold float64) (PivotTable, []Defaulter, error) {
	if threshold == 0 {
		threshold = svc.defaultThreshold
	}
	rows, err := svc.repo.DetailedMonthlySummary(ctx, scope, monthKey)
	if err != nil {
		return PivotTable{}, nil, err
	}
	return Pivot(rows), Defaulters(rows, threshold), nil
}

func (svc *Service) DefaultThreshold() float64 {
	return svc.defaultThreshold
}
