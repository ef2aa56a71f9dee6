package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-finance-api/internal/models"
	"github.com/noah-isme/uni-finance-api/internal/service"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
	"github.com/noah-isme/uni-finance-api/pkg/response"
)

// BalanceHandler exposes the student fee ledger.
type BalanceHandler struct {
	service    *service.BalanceService
	statements *service.StatementService
}

// NewBalanceHandler constructs a balance handler.
func NewBalanceHandler(svc *service.BalanceService, statements *service.StatementService) *BalanceHandler {
	return &BalanceHandler{service: svc, statements: statements}
}

// List godoc
// @Summary List ledger rows
// @Tags Balances
// @Produce json
// @Param student_number query string false "Filter by student"
// @Param fee_structure_id query string false "Filter by structure"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /balances [get]
func (h *BalanceHandler) List(c *gin.Context) {
	var filter models.BalanceFilter
	filter.StudentNumber = c.Query("student_number")
	filter.FeeStructureID = c.Query("fee_structure_id")
	filter.Status = models.BalanceStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	balances, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balances, pagination)
}

// ListByStudent godoc
// @Summary List one student's ledger rows
// @Tags Balances
// @Produce json
// @Param studentNumber path string true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{studentNumber}/balances [get]
func (h *BalanceHandler) ListByStudent(c *gin.Context) {
	balances, err := h.service.ListByStudent(c.Request.Context(), c.Param("studentNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balances, nil)
}

// Summary godoc
// @Summary Aggregate one student's ledger
// @Tags Balances
// @Produce json
// @Param studentNumber path string true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{studentNumber}/balances/summary [get]
func (h *BalanceHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("studentNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Generate godoc
// @Summary Generate ledger rows for a student and structure
// @Tags Balances
// @Produce json
// @Param studentNumber path string true "Student number"
// @Param structureId path string true "Structure ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentNumber}/balances/generate/{structureId} [post]
func (h *BalanceHandler) Generate(c *gin.Context) {
	created, err := h.service.GenerateForStudent(c.Request.Context(), c.Param("studentNumber"), c.Param("structureId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, created, nil, map[string]interface{}{"created": len(created)})
}

// ApplyPayment godoc
// @Summary Apply a payment to one ledger row
// @Tags Balances
// @Accept json
// @Produce json
// @Param id path string true "Balance ID"
// @Param payload body service.ApplyPaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /balances/{id}/payments [post]
func (h *BalanceHandler) ApplyPayment(c *gin.Context) {
	var req service.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	balance, err := h.service.ApplyPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}

// Recalculate godoc
// @Summary Recalculate one student's ledger from stored amounts
// @Tags Balances
// @Produce json
// @Param studentNumber path string true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{studentNumber}/balances/recalculate [post]
func (h *BalanceHandler) Recalculate(c *gin.Context) {
	changed, err := h.service.RecalculateStudent(c.Request.Context(), c.Param("studentNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"changed": changed}, nil)
}

// Statement godoc
// @Summary Download a student fee statement
// @Tags Balances
// @Produce text/csv
// @Produce application/pdf
// @Param studentNumber path string true "Student number"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/{studentNumber}/statement [get]
func (h *BalanceHandler) Statement(c *gin.Context) {
	if h.statements == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "statement export is disabled"))
		return
	}
	format := service.StatementFormat(c.DefaultQuery("format", "csv"))
	statement, err := h.statements.Render(c.Request.Context(), c.Param("studentNumber"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+statement.FileName+`"`)
	c.Data(http.StatusOK, statement.ContentType, statement.Content)
}

// StatementLink godoc
// @Summary Archive a statement and return a signed download link
// @Tags Balances
// @Produce json
// @Param studentNumber path string true "Student number"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Router /students/{studentNumber}/statement/link [get]
func (h *BalanceHandler) StatementLink(c *gin.Context) {
	if h.statements == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "statement export is disabled"))
		return
	}
	format := service.StatementFormat(c.DefaultQuery("format", "csv"))
	link, err := h.statements.RenderAndArchive(c.Request.Context(), c.Param("studentNumber"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// StatementDownload godoc
// @Summary Download an archived statement by signed token
// @Tags Balances
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /statements/{token} [get]
func (h *BalanceHandler) StatementDownload(c *gin.Context) {
	if h.statements == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "statement export is disabled"))
		return
	}
	statement, err := h.statements.OpenArchived(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+statement.FileName+`"`)
	c.Data(http.StatusOK, statement.ContentType, statement.Content)
}
