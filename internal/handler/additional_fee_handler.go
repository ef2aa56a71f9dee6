package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-finance-api/internal/service"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
	"github.com/noah-isme/uni-finance-api/pkg/response"
)

// AdditionalFeeHandler exposes additional fee endpoints.
type AdditionalFeeHandler struct {
	service *service.AdditionalFeeService
}

// NewAdditionalFeeHandler constructs an additional fee handler.
func NewAdditionalFeeHandler(svc *service.AdditionalFeeService) *AdditionalFeeHandler {
	return &AdditionalFeeHandler{service: svc}
}

// List godoc
// @Summary List additional fee definitions
// @Tags Additional Fees
// @Produce json
// @Param active_only query bool false "Restrict to active fees"
// @Success 200 {object} response.Envelope
// @Router /additional-fees [get]
func (h *AdditionalFeeHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))
	fees, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// Get godoc
// @Summary Get additional fee detail
// @Tags Additional Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /additional-fees/{id} [get]
func (h *AdditionalFeeHandler) Get(c *gin.Context) {
	fee, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Create godoc
// @Summary Create additional fee definition
// @Tags Additional Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateAdditionalFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /additional-fees [post]
func (h *AdditionalFeeHandler) Create(c *gin.Context) {
	var req service.CreateAdditionalFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Update additional fee definition
// @Tags Additional Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body service.UpdateAdditionalFeeRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /additional-fees/{id} [put]
func (h *AdditionalFeeHandler) Update(c *gin.Context) {
	var req service.UpdateAdditionalFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete additional fee definition
// @Tags Additional Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 204 {object} nil
// @Router /additional-fees/{id} [delete]
func (h *AdditionalFeeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Apply godoc
// @Summary Apply an additional fee to its target students
// @Tags Additional Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /additional-fees/{id}/apply [post]
func (h *AdditionalFeeHandler) Apply(c *gin.Context) {
	result, err := h.service.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListStudentFees godoc
// @Summary List a student's applied additional fees
// @Tags Additional Fees
// @Produce json
// @Param studentNumber path string true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{studentNumber}/additional-fees [get]
func (h *AdditionalFeeHandler) ListStudentFees(c *gin.Context) {
	fees, err := h.service.ListStudentFees(c.Request.Context(), c.Param("studentNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}
