package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"kaizen/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportRequest struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
}

// handleMonthlyReport returns one month, or every month keyed by its
// uppercase name when month is omitted.
func (s *Server) handleMonthlyReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	if req.Month != 0 {
		summary, err := s.services.Reports.Monthly(ctx, req.Year, req.Month)
		if err != nil {
			s.respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, summary)
		return
	}

	months, err := s.services.Reports.AllMonths(ctx, req.Year)
	if err != nil {
		s.respondError(c, err)
		return
	}
	byName := make(map[string]report.MonthSummary, len(months))
	for _, m := range months {
		byName[report.MonthName(m.Month)] = m
	}
	respondSuccess(c, http.StatusOK, byName)
}

func (s *Server) handleYearlyReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	summary, err := s.services.Reports.Yearly(c.Request.Context(), req.Year)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}

// handleExportReport streams the yearly workbook as an attachment.
func (s *Server) handleExportReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	data, err := s.services.Reports.ExportYear(c.Request.Context(), req.Year)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="kaizen-report-%d.xlsx"`, req.Year))
	c.Data(http.StatusOK, xlsxContentType, data)
}
