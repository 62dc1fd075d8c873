package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type MenuController struct {
	menu  *services.MenuService
	audit auditor
}

func NewMenuController(menu *services.MenuService, logs *services.SystemLogService) *MenuController {
	return &MenuController{menu: menu, audit: auditor{logs: logs}}
}

// GetAllMenus takes ?category= and ?available=true.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.menu.List(c.Request.Context(), services.MenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var in services.MenuItemInput
	if !bindBody(c, &in) {
		return
	}
	item, err := mc.menu.Create(c.Request.Context(), middlewares.ActorFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	mc.audit.record(c, services.ActionMasterData, fmt.Sprintf("Menu item %s created", item.Name))
	utils.RespondJSON(c, http.StatusCreated, "Menu created successfully", item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	var in services.MenuItemInput
	if !bindBody(c, &in) {
		return
	}
	item, err := mc.menu.Update(c.Request.Context(), middlewares.ActorFrom(c), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	mc.audit.record(c, services.ActionMasterData, fmt.Sprintf("Menu item %s updated", item.Name))
	utils.RespondJSON(c, http.StatusOK, "Menu updated successfully", item)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	if err := mc.menu.Delete(c.Request.Context(), middlewares.ActorFrom(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	mc.audit.record(c, services.ActionMasterData, fmt.Sprintf("Menu item %d deleted", id))
	utils.RespondJSON(c, http.StatusOK, "Menu deleted successfully", gin.H{"id": id})
}
