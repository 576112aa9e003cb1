package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kaizen/internal/models"
)

var (
	ErrInvalidYear  = errors.New("report: invalid year")
	ErrInvalidMonth = errors.New("report: invalid month")
)

// DataSource is the read side of the record store the reports scan.
type DataSource interface {
	ListActiveEmployees(ctx context.Context) ([]models.Employee, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListSubmissions(ctx context.Context, from, to time.Time, statuses []models.Status) ([]models.Submission, error)
}

// Service assembles report data from the store.
type Service struct {
	src DataSource
	cal Calendar
}

// Option customizes a Service.
type Option func(*Service)

// WithLocation cuts report windows in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.cal = NewCalendar(loc) }
}

// NewService returns a report service reading from src.
func NewService(src DataSource, opts ...Option) *Service {
	s := &Service{src: src}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Monthly computes a single month's summary.
func (s *Service) Monthly(ctx context.Context, year, month int) (MonthSummary, error) {
	if err := validate(year, month); err != nil {
		return MonthSummary{}, err
	}

	from, to := s.cal.Window(year, month)
	in, err := s.load(ctx, from, to)
	if err != nil {
		return MonthSummary{}, err
	}
	return s.cal.Monthly(year, month, in.employees, in.submissions, in.departments), nil
}

// AllMonths computes the twelve monthly summaries of a year, January first.
func (s *Service) AllMonths(ctx context.Context, year int) ([]MonthSummary, error) {
	if err := validate(year, 1); err != nil {
		return nil, err
	}

	from, to := s.cal.YearWindow(year)
	in, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}

	months := make([]MonthSummary, 0, 12)
	for m := 1; m <= 12; m++ {
		months = append(months, s.cal.Monthly(year, m, in.employees, in.submissions, in.departments))
	}
	return months, nil
}

// Yearly computes the summary of a year.
func (s *Service) Yearly(ctx context.Context, year int) (YearSummary, error) {
	if err := validate(year, 1); err != nil {
		return YearSummary{}, err
	}

	from, to := s.cal.YearWindow(year)
	in, err := s.load(ctx, from, to)
	if err != nil {
		return YearSummary{}, err
	}
	return s.cal.Yearly(year, in.employees, in.submissions), nil
}

type dataset struct {
	employees   []models.Employee
	departments []models.Department
	submissions []models.Submission
}

func (s *Service) load(ctx context.Context, from, to time.Time) (dataset, error) {
	var (
		ds  dataset
		err error
	)
	if ds.employees, err = s.src.ListActiveEmployees(ctx); err != nil {
		return ds, fmt.Errorf("report: list employees: %w", err)
	}
	if ds.departments, err = s.src.ListDepartments(ctx); err != nil {
		return ds, fmt.Errorf("report: list departments: %w", err)
	}
	if ds.submissions, err = s.src.ListSubmissions(ctx, from, to, models.SubmittedStatuses); err != nil {
		return ds, fmt.Errorf("report: list submissions: %w", err)
	}
	return ds, nil
}

func validate(year, month int) error {
	if year < 2000 || year > 9999 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return nil
}
