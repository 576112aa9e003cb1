package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	yearlySheet  = "Yearly"
	monthlySheet = "Monthly"
)

var monthlyHeader = []any{"Month", "Period", "Department", "Department Name", "Employees", "Submitted", "Rate (%)"}

// ExportYear renders the yearly summary and every monthly department line of
// a year as an xlsx workbook.
func (s *Service) ExportYear(ctx context.Context, year int) ([]byte, error) {
	yearly, err := s.Yearly(ctx, year)
	if err != nil {
		return nil, err
	}
	months, err := s.AllMonths(ctx, year)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", yearlySheet); err != nil {
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}
	yearlyRows := [][]any{
		{"Year", yearly.Year},
		{"Total Employees", yearly.TotalEmployees},
		{"Total Submitted", yearly.TotalSubmitted},
		{"Success Rate (%)", yearly.SuccessRate},
		{"Total Projects", yearly.TotalProjects},
	}
	if err := writeRows(f, yearlySheet, yearlyRows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(monthlySheet); err != nil {
		return nil, fmt.Errorf("report: add sheet: %w", err)
	}
	rows := [][]any{monthlyHeader}
	for _, m := range months {
		from, _ := s.cal.Window(m.Year, m.Month)
		period := from.Format("2006-01-02") + " - " + LastDay(m.Year, m.Month).Format("2006-01-02")
		for _, d := range m.Departments {
			rows = append(rows, []any{MonthName(m.Month), period, d.Code, d.Name, d.Employees, d.Submitted, d.Rate})
		}
		rows = append(rows, []any{MonthName(m.Month), period, "TOTAL", "", m.TotalEmployees, m.SubmittedReports, m.SuccessRate})
	}
	if err := writeRows(f, monthlySheet, rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("report: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("report: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("report: write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
