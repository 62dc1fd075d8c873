package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type SystemLogController struct {
	logs *services.SystemLogService
}

func NewSystemLogController(logs *services.SystemLogService) *SystemLogController {
	return &SystemLogController{logs: logs}
}

func (lc *SystemLogController) filter(c *gin.Context) (services.SystemLogFilter, bool) {
	f := services.SystemLogFilter{
		Action: c.Query("action"),
		UserID: queryUint(c, "user_id"),
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if v := c.Query(name); v != "" {
			t, err := time.ParseInLocation(dateLayout, v, time.Local)
			if err != nil {
				utils.RespondError(c, http.StatusBadRequest, errInvalidDate)
				return f, false
			}
			*dst = t
		}
	}
	return f, true
}

func (lc *SystemLogController) List(c *gin.Context) {
	f, ok := lc.filter(c)
	if !ok {
		return
	}
	logs, total, err := lc.logs.List(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "System logs", gin.H{
		"logs":  logs,
		"total": total,
	})
}

func (lc *SystemLogController) Export(c *gin.Context) {
	f, ok := lc.filter(c)
	if !ok {
		return
	}
	f.Limit, f.Offset = 500, 0
	logs, _, err := lc.logs.List(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	data, err := services.ExportSystemLogsCSV(logs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendFile(c, "system_logs_"+time.Now().Format("20060102")+".csv", "text/csv; charset=utf-8", data)
}
