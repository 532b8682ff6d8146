package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
)

type settlePaymentRequest struct {
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
	Service string `json:"service"`
	Notes   string `json:"notes"`
}

func (s *Server) SettlePayment(c *gin.Context) {
	var req settlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	processedBy := ""
	if principal, ok := principalFromGin(c); ok {
		processedBy = principal.Name
	}

	resp, err := s.paymentSvc.Settle(c.Request.Context(), paymentdomain.SettleRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
		Amount:        req.Amount,
		Method:        strings.TrimSpace(req.Method),
		Service:       strings.TrimSpace(req.Service),
		Notes:         strings.TrimSpace(req.Notes),
		ProcessedBy:   processedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceipt(c *gin.Context) {
	resp, err := s.paymentSvc.GetReceiptByAppointment(c.Request.Context(), paymentdomain.GetReceiptRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderReceiptPDF(c *gin.Context) {
	reader, err := s.paymentSvc.RenderReceiptPDF(c.Request.Context(), paymentdomain.GetReceiptRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	document, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="receipt.pdf"`)
	c.Data(http.StatusOK, "application/pdf", document)
}

type listReceiptsQuery struct {
	pagination.Pagination
	From   string `form:"from"`
	To     string `form:"to"`
	Method string `form:"method"`
}

func (s *Server) ListReceipts(c *gin.Context) {
	var query listReceiptsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}

	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.paymentSvc.ListReceipts(c.Request.Context(), paymentdomain.ListReceiptRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  int32(query.PageSize),
		From:      from,
		To:        to,
		Method:    strings.TrimSpace(query.Method),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Receipts, "page_info": resp.PageInfo})
}
