package handlers

import (
	"net/http"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler serves the floor plan and the join operations.
type TableHandler struct {
	tableService services.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreateTable", err)
		return
	}
	table, err := h.tableService.CreateTable(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateTable: Error from tableService.CreateTable", err, "Failed to create table.")
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *TableHandler) GetTables(c *gin.Context) {
	var filters models.TableFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if filters.Status != nil && !models.IsValidTableStatus(*filters.Status) {
		utils.RespondValidationFailed(c, "status must be available, occupied or reserved")
		return
	}
	tables, err := h.tableService.GetTables(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetTables: Error from tableService.GetTables", err, "Failed to fetch tables.")
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (h *TableHandler) GetTableByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	table, err := h.tableService.GetTableByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetTableByID: Error from tableService.GetTableByID", err, "Failed to fetch table.")
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) UpdateTable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateTable", err)
		return
	}
	table, err := h.tableService.UpdateTable(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateTable: Error from tableService.UpdateTable", err, "Failed to update table.")
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) DeleteTable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.tableService.DeleteTable(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteTable: Error from tableService.DeleteTable", err, "Failed to delete table.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

// UpdateTableStatus answers with the target table and every linked table
// the change propagated to.
func (h *TableHandler) UpdateTableStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateTableStatus", err)
		return
	}
	changed, err := h.tableService.UpdateTableStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, "UpdateTableStatus: Error from tableService.UpdateTableStatus", err, "Failed to update table status.")
		return
	}

	var target *models.Table
	for _, t := range changed {
		if t.ID == id {
			target = t
		}
	}
	if target == nil {
		// The table already had the status; nothing changed.
		if target, err = h.tableService.GetTableByID(c.Request.Context(), id); err != nil {
			respondServiceError(c, "UpdateTableStatus: Error from tableService.GetTableByID", err, "Failed to fetch table.")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"table": target, "updated_tables": changed})
}

func (h *TableHandler) JoinTables(c *gin.Context) {
	var req services.JoinTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "JoinTables", err)
		return
	}
	result, err := h.tableService.JoinTables(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "JoinTables: Error from tableService.JoinTables", err, "Failed to join tables.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TableHandler) UnjoinTable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.tableService.UnjoinTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "UnjoinTable: Error from tableService.UnjoinTable", err, "Failed to unjoin tables.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TableHandler) SplitTable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.SplitTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "SplitTable", err)
		return
	}
	result, err := h.tableService.SplitTable(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "SplitTable: Error from tableService.SplitTable", err, "Failed to split table.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TableHandler) AssignWaiters(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AssignWaitersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "AssignWaiters", err)
		return
	}
	table, err := h.tableService.AssignWaiters(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "AssignWaiters: Error from tableService.AssignWaiters", err, "Failed to assign waiters.")
		return
	}
	c.JSON(http.StatusOK, table)
}
