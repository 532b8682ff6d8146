package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/perly101/purrfectpaw/internal/report/domain"
)

type revenueReportQuery struct {
	Type  string `form:"type"`
	Date  string `form:"date"`
	Month int    `form:"month"`
	Year  int    `form:"year"`
	Start string `form:"start"`
	End   string `form:"end"`
}

func (s *Server) buildReportRequest(c *gin.Context) (reportdomain.GenerateReportRequest, bool) {
	var query revenueReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return reportdomain.GenerateReportRequest{}, false
	}

	return reportdomain.GenerateReportRequest{
		Type:  strings.TrimSpace(query.Type),
		Date:  strings.TrimSpace(query.Date),
		Month: query.Month,
		Year:  query.Year,
		Start: strings.TrimSpace(query.Start),
		End:   strings.TrimSpace(query.End),
	}, true
}

func (s *Server) GenerateRevenueReport(c *gin.Context) {
	req, ok := s.buildReportRequest(c)
	if !ok {
		return
	}

	resp, err := s.reportSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ExportRevenueReport returns the report as quoted comma-separated
// text so front desks can open it straight in a spreadsheet.
func (s *Server) ExportRevenueReport(c *gin.Context) {
	req, ok := s.buildReportRequest(c)
	if !ok {
		return
	}

	resp, err := s.reportSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rendered := s.reportSvc.RenderText(resp)
	c.Header("Content-Disposition", `attachment; filename="revenue-report.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(rendered))
}
