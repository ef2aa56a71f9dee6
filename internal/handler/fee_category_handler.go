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

// FeeCategoryHandler exposes fee category CRUD endpoints.
type FeeCategoryHandler struct {
	service *service.CatalogService
}

// NewFeeCategoryHandler constructs a fee category handler.
func NewFeeCategoryHandler(svc *service.CatalogService) *FeeCategoryHandler {
	return &FeeCategoryHandler{service: svc}
}

// List godoc
// @Summary List fee categories
// @Tags Fee Categories
// @Produce json
// @Param type query string false "Filter by category type"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fee-categories [get]
func (h *FeeCategoryHandler) List(c *gin.Context) {
	var filter models.FeeCategoryFilter
	filter.Type = models.FeeCategoryType(c.Query("type"))
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	categories, pagination, err := h.service.ListCategories(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, pagination)
}

// Get godoc
// @Summary Get fee category detail
// @Tags Fee Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /fee-categories/{id} [get]
func (h *FeeCategoryHandler) Get(c *gin.Context) {
	category, err := h.service.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Create godoc
// @Summary Create fee category
// @Tags Fee Categories
// @Accept json
// @Produce json
// @Param payload body service.CreateFeeCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /fee-categories [post]
func (h *FeeCategoryHandler) Create(c *gin.Context) {
	var req service.CreateFeeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Update godoc
// @Summary Update fee category
// @Tags Fee Categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body service.UpdateFeeCategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /fee-categories/{id} [put]
func (h *FeeCategoryHandler) Update(c *gin.Context) {
	var req service.UpdateFeeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete godoc
// @Summary Delete fee category
// @Tags Fee Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 204 {object} nil
// @Router /fee-categories/{id} [delete]
func (h *FeeCategoryHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
