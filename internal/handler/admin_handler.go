package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-finance-api/internal/service"
	"github.com/noah-isme/uni-finance-api/pkg/response"
)

// AdminHandler exposes reconciliation and migration operations.
type AdminHandler struct {
	reconciliation *service.ReconciliationService
	migration      *service.MigrationService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(reconciliation *service.ReconciliationService, migration *service.MigrationService) *AdminHandler {
	return &AdminHandler{reconciliation: reconciliation, migration: migration}
}

// Reconcile godoc
// @Summary Run a full reconciliation sweep
// @Tags Administration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reconciliation/run [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciliation.ReconcileAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// RefreshStatuses godoc
// @Summary Recompute ledger statuses from stored amounts
// @Tags Administration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reconciliation/statuses [post]
func (h *AdminHandler) RefreshStatuses(c *gin.Context) {
	changed, err := h.reconciliation.RefreshStatuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"changed": changed}, nil)
}

// Migrate godoc
// @Summary Migrate legacy balances into the per-item ledger
// @Tags Administration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/migration/legacy-balances [post]
func (h *AdminHandler) Migrate(c *gin.Context) {
	result, err := h.migration.Migrate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"completed": result.Migrated > 0})
}
