package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-finance-api/internal/models"
	"github.com/noah-isme/uni-finance-api/internal/service"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
	"github.com/noah-isme/uni-finance-api/pkg/response"
)

// FeeStructureHandler exposes fee structure endpoints.
type FeeStructureHandler struct {
	service *service.CatalogService
}

// NewFeeStructureHandler constructs a fee structure handler.
func NewFeeStructureHandler(svc *service.CatalogService) *FeeStructureHandler {
	return &FeeStructureHandler{service: svc}
}

// List godoc
// @Summary List fee structures
// @Tags Fee Structures
// @Produce json
// @Param academic_year query string false "Filter by academic year"
// @Param semester query string false "Filter by semester"
// @Param search query string false "Search keyword"
// @Param include_inactive query bool false "Include deactivated structures"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fee-structures [get]
func (h *FeeStructureHandler) List(c *gin.Context) {
	var filter models.FeeStructureFilter
	filter.AcademicYear = c.Query("academic_year")
	filter.Semester = c.Query("semester")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if include, err := strconv.ParseBool(c.DefaultQuery("include_inactive", "false")); err == nil {
		filter.IncludeInactive = include
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	structures, pagination, err := h.service.ListStructures(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structures, pagination)
}

// Get godoc
// @Summary Get fee structure detail with items
// @Tags Fee Structures
// @Produce json
// @Param id path string true "Structure ID"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id} [get]
func (h *FeeStructureHandler) Get(c *gin.Context) {
	structure, err := h.service.GetStructure(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// Create godoc
// @Summary Create fee structure with items
// @Tags Fee Structures
// @Accept json
// @Produce json
// @Param payload body service.CreateFeeStructureRequest true "Structure payload"
// @Success 201 {object} response.Envelope
// @Router /fee-structures [post]
func (h *FeeStructureHandler) Create(c *gin.Context) {
	var req service.CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	structure, err := h.service.CreateStructure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, structure)
}

// Update godoc
// @Summary Update fee structure metadata
// @Tags Fee Structures
// @Accept json
// @Produce json
// @Param id path string true "Structure ID"
// @Param payload body service.UpdateFeeStructureRequest true "Structure payload"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id} [put]
func (h *FeeStructureHandler) Update(c *gin.Context) {
	var req service.UpdateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	structure, err := h.service.UpdateStructure(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// Deactivate godoc
// @Summary Deactivate fee structure
// @Tags Fee Structures
// @Produce json
// @Param id path string true "Structure ID"
// @Success 204 {object} nil
// @Router /fee-structures/{id}/deactivate [post]
func (h *FeeStructureHandler) Deactivate(c *gin.Context) {
	if err := h.service.DeactivateStructure(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reactivate godoc
// @Summary Reactivate fee structure
// @Tags Fee Structures
// @Produce json
// @Param id path string true "Structure ID"
// @Success 204 {object} nil
// @Router /fee-structures/{id}/reactivate [post]
func (h *FeeStructureHandler) Reactivate(c *gin.Context) {
	if err := h.service.ReactivateStructure(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
