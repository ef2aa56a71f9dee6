package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-finance-api/internal/service"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
	"github.com/noah-isme/uni-finance-api/pkg/response"
)

// AssignmentHandler exposes fee assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Assign godoc
// @Summary Assign a fee structure to one student
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignFeeStructureRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Remove godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204 {object} nil
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkAssign godoc
// @Summary Assign a fee structure to a list of students
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.BulkAssignRequest true "Bulk assignment payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/bulk [post]
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req service.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.BulkAssign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AssignToAll godoc
// @Summary Assign a fee structure to every active student
// @Tags Assignments
// @Produce json
// @Param id path string true "Structure ID"
// @Param assigned_by query string false "Acting user"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id}/assign-all [post]
func (h *AssignmentHandler) AssignToAll(c *gin.Context) {
	result, err := h.service.AssignToAll(c.Request.Context(), c.Param("id"), c.Query("assigned_by"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
