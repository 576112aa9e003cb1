// Package report computes monthly and yearly Kaizen submission compliance.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kaizen/internal/models"
)

// DepartmentStat is one department's line in a monthly summary.
type DepartmentStat struct {
	Code      string  `json:"department"`
	Name      string  `json:"departmentName"`
	Employees int     `json:"employees"`
	Submitted int     `json:"submitted"`
	Rate      float64 `json:"rate"`
}

// MonthSummary is the compliance summary of one calendar month.
type MonthSummary struct {
	Year                int              `json:"year"`
	Month               int              `json:"month"`
	Departments         []DepartmentStat `json:"departments"`
	TotalEmployees      int              `json:"totalEmployees"`
	SubmittedReports    int              `json:"submittedReports"`
	NotSubmittedReports int              `json:"notSubmittedReports"`
	SuccessRate         int              `json:"successRate"`
}

// YearSummary is the department-agnostic compliance summary of a year.
type YearSummary struct {
	Year           int `json:"year"`
	TotalEmployees int `json:"totalEmployees"`
	TotalSubmitted int `json:"totalSubmitted"`
	SuccessRate    int `json:"successRate"`
	TotalProjects  int `json:"totalProjects"`
}

// MonthName returns the uppercase English name used as a response key.
func MonthName(month int) string {
	return strings.ToUpper(time.Month(month).String())
}

// Calendar cuts report months and years in a fixed location. The zero value
// uses UTC.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a calendar for loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{loc: loc}
}

// Location returns the calendar's time zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Window returns the first instant of the month and the first instant of the
// next month. The last calendar day is included in [from, to).
func (c Calendar) Window(year, month int) (from, to time.Time) {
	from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, c.Location())
	return from, from.AddDate(0, 1, 0)
}

// YearWindow returns [Jan 1, Jan 1 of next year).
func (c Calendar) YearWindow(year int) (from, to time.Time) {
	from = time.Date(year, time.January, 1, 0, 0, 0, 0, c.Location())
	return from, from.AddDate(1, 0, 0)
}

// Window is Calendar.Window in UTC.
func Window(year, month int) (from, to time.Time) {
	return Calendar{}.Window(year, month)
}

// YearWindow is Calendar.YearWindow in UTC.
func YearWindow(year int) (from, to time.Time) {
	return Calendar{}.YearWindow(year)
}

// LastDay returns the last calendar day of the month.
func LastDay(year, month int) time.Time {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Monthly is Calendar.Monthly in UTC.
func Monthly(year, month int, employees []models.Employee, submissions []models.Submission, departments []models.Department) MonthSummary {
	return Calendar{}.Monthly(year, month, employees, submissions, departments)
}

// Yearly is Calendar.Yearly in UTC.
func Yearly(year int, employees []models.Employee, submissions []models.Submission) YearSummary {
	return Calendar{}.Yearly(year, employees, submissions)
}

// roster maps every active employee to their department.
func roster(employees []models.Employee) map[string]string {
	out := make(map[string]string, len(employees))
	for _, e := range employees {
		if e.Active {
			out[e.ID] = e.Department
		}
	}
	return out
}

// Monthly folds employees and submissions into the summary of one month.
// Only submissions by active employees inside the month and in a submitted
// status count, each under the employee's department, so no department can
// report more submitters than staff.
func (c Calendar) Monthly(year, month int, employees []models.Employee, submissions []models.Submission, departments []models.Department) MonthSummary {
	from, to := c.Window(year, month)
	active := roster(employees)

	headcount := make(map[string]int)
	for _, dept := range active {
		headcount[dept]++
	}

	submitters := make(map[string]map[string]struct{})
	for _, s := range submissions {
		dept, ok := active[s.EmployeeID]
		if !ok || !s.Status.Submitted() || s.SubmittedAt.Before(from) || !s.SubmittedAt.Before(to) {
			continue
		}
		set, ok := submitters[dept]
		if !ok {
			set = make(map[string]struct{})
			submitters[dept] = set
		}
		set[s.EmployeeID] = struct{}{}
	}

	names := make(map[string]string, len(departments))
	for _, d := range departments {
		names[d.Code] = d.Name
	}

	codes := make([]string, 0, len(headcount))
	for code := range headcount {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	summary := MonthSummary{Year: year, Month: month, Departments: make([]DepartmentStat, 0, len(codes))}
	for _, code := range codes {
		stat := DepartmentStat{
			Code:      code,
			Name:      code,
			Employees: headcount[code],
			Submitted: len(submitters[code]),
		}
		if name, ok := names[code]; ok && name != "" {
			stat.Name = name
		}
		stat.Rate = percent(stat.Submitted, stat.Employees, 1)

		summary.Departments = append(summary.Departments, stat)
		summary.TotalEmployees += stat.Employees
		summary.SubmittedReports += stat.Submitted
	}

	summary.NotSubmittedReports = summary.TotalEmployees - summary.SubmittedReports
	summary.SuccessRate = int(percent(summary.SubmittedReports, summary.TotalEmployees, 0))
	return summary
}

// Yearly folds employees and submissions into the summary of one year.
// TotalProjects counts every qualifying row; TotalSubmitted only counts
// active employees.
func (c Calendar) Yearly(year int, employees []models.Employee, submissions []models.Submission) YearSummary {
	from, to := c.YearWindow(year)
	active := roster(employees)

	summary := YearSummary{Year: year, TotalEmployees: len(active)}
	submitters := make(map[string]struct{})
	for _, s := range submissions {
		if !s.Status.Submitted() || s.SubmittedAt.Before(from) || !s.SubmittedAt.Before(to) {
			continue
		}
		summary.TotalProjects++
		if _, ok := active[s.EmployeeID]; ok {
			submitters[s.EmployeeID] = struct{}{}
		}
	}
	summary.TotalSubmitted = len(submitters)
	summary.SuccessRate = int(percent(summary.TotalSubmitted, summary.TotalEmployees, 0))
	return summary
}

// percent returns part/whole*100 rounded half away from zero to the given
// number of decimal places, and 0 when whole is 0.
func percent(part, whole int, places int32) float64 {
	if whole == 0 {
		return 0
	}
	v := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(places)
	f, _ := v.Float64()
	return f
}
