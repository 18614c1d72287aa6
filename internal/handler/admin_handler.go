package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/service"
)

// AdminHandler handles administrative account requests
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListAccounts returns a page of accounts, filterable by email or username
// substring via the q parameter
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	query := c.Query("q")

	accounts, total, err := h.adminService.ListAccounts(c.Request.Context(), page, limit, query)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.AccountListResponse{
		Accounts: make([]dto.UserResponse, 0, len(accounts)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for _, account := range accounts {
		resp.Accounts = append(resp.Accounts, toUserResponse(account))
	}

	c.JSON(http.StatusOK, resp)
}

// GetAccount returns a single account by id
func (h *AdminHandler) GetAccount(c *gin.Context) {
	account, err := h.adminService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(account))
}

// UpdateStatus transitions an account through the status state machine
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	performedBy, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	account, err := h.adminService.UpdateStatus(c.Request.Context(), c.Param("id"), domain.Status(req.Status), performedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(account))
}

// StatusLogs returns the audit trail of status changes for an account
func (h *AdminHandler) StatusLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	cursor := c.Query("cursor")

	logs, err := h.adminService.StatusLogs(c.Request.Context(), c.Param("id"), cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.StatusLogResponse{Logs: make([]dto.StatusLogEntry, 0, len(logs))}
	for _, log := range logs {
		resp.Logs = append(resp.Logs, dto.StatusLogEntry{
			ID:          log.ID,
			OldStatus:   string(log.OldStatus),
			NewStatus:   string(log.NewStatus),
			PerformedBy: log.PerformedBy,
			CreatedAt:   log.CreatedAt.Format(time.RFC3339),
		})
	}
	if len(logs) == limit && len(logs) > 0 {
		resp.NextCursor = logs[len(logs)-1].ID
	}

	c.JSON(http.StatusOK, resp)
}
