package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/kds"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type TableController struct {
	tables *services.TableService
	hub    *kds.Hub
	audit  auditor
}

func NewTableController(tables *services.TableService, logs *services.SystemLogService, hub *kds.Hub) *TableController {
	return &TableController{tables: tables, hub: hub, audit: auditor{logs: logs}}
}

func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.tables.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := tc.tables.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var in services.TableInput
	if !bindBody(c, &in) {
		return
	}
	table, err := tc.tables.Create(c.Request.Context(), middlewares.ActorFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.hub.TableUpdate(*table)
	tc.audit.record(c, services.ActionMasterData, fmt.Sprintf("Table %s created", table.TableNumber))
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var in services.TableInput
	if !bindBody(c, &in) {
		return
	}
	table, err := tc.tables.Update(c.Request.Context(), middlewares.ActorFrom(c), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.hub.TableUpdate(*table)
	tc.audit.record(c, services.ActionMasterData,
		fmt.Sprintf("Table %s updated (status=%s)", table.TableNumber, table.Status))
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	if err := tc.tables.Delete(c.Request.Context(), middlewares.ActorFrom(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	tc.audit.record(c, services.ActionMasterData, fmt.Sprintf("Table %d deleted", id))
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": id})
}
