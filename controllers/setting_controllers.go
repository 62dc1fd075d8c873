package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type SettingController struct {
	settings *services.SettingsService
	audit    auditor
}

func NewSettingController(settings *services.SettingsService, logs *services.SystemLogService) *SettingController {
	return &SettingController{settings: settings, audit: auditor{logs: logs}}
}

func (sc *SettingController) Get(c *gin.Context) {
	s, err := sc.settings.Load(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Settings", s)
}

// Update accepts any subset of the setting keys as JSON or form fields.
func (sc *SettingController) Update(c *gin.Context) {
	values := map[string]string{}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body map[string]interface{}
		if !bindBody(c, &body) {
			return
		}
		for k, v := range body {
			if v != nil {
				values[k] = fmt.Sprint(v)
			}
		}
	} else {
		for _, k := range services.SettingKeys {
			if v, ok := c.GetPostForm(k); ok {
				values[k] = v
			}
		}
	}

	s, err := sc.settings.Update(c.Request.Context(), middlewares.ActorFrom(c), values)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sc.audit.record(c, services.ActionUpdateSetting, "Updated "+strings.Join(keys, ", "))
	utils.RespondJSON(c, http.StatusOK, "Settings saved", s)
}
