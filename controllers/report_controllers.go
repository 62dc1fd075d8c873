package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	reports  *services.ReportService
	ledger   *services.Ledger
	settings *services.SettingsService
}

func NewReportController(reports *services.ReportService, ledger *services.Ledger, settings *services.SettingsService) *ReportController {
	return &ReportController{reports: reports, ledger: ledger, settings: settings}
}

func (rc *ReportController) AdminDashboard(c *gin.Context) {
	d, err := rc.reports.AdminDashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard", d)
}

// CastDashboard shows the caller's own numbers. Admins may pass ?cast_id=.
func (rc *ReportController) CastDashboard(c *gin.Context) {
	actor := middlewares.ActorFrom(c)
	castID := actor.UserID
	if actor.Role == models.RoleAdmin {
		if id := queryUint(c, "cast_id"); id != 0 {
			castID = id
		}
	}
	d, err := rc.reports.CastDashboard(c.Request.Context(), actor, castID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cast dashboard", d)
}

func (rc *ReportController) Sales(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}
	rep, err := rc.reports.Build(c.Request.Context(), r)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", rep)
}

func (rc *ReportController) Sessions(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := rc.reports.Sessions(c.Request.Context(), r)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sessions", rows)
}

// Export streams the report as ?format=csv (session list) or xlsx (all sections).
func (rc *ReportController) Export(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rows, err := rc.reports.Sessions(ctx, r)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	suffix := fmt.Sprintf("%s_%s", r.From.Format("20060102"), r.To.Format("20060102"))

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := services.ExportSessionsCSV(rows)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.SendFile(c, "sales_"+suffix+".csv", "text/csv; charset=utf-8", data)
	case "xlsx", "excel":
		rep, err := rc.reports.Build(ctx, r)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		data, err := services.ExportReportXLSX(rep, rows)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.SendFile(c, "sales_"+suffix+".xlsx", xlsxContentType, data)
	default:
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid format (use csv or xlsx)"))
	}
}

// BillSlip renders the current bill of an active session as a PDF.
func (rc *ReportController) BillSlip(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	summary, err := rc.ledger.PreviewCheckout(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	s, err := rc.settings.Load(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	data, err := services.ReceiptPDF(s.StoreName, summary)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendFile(c, fmt.Sprintf("bill_%d.pdf", id), "application/pdf", data)
}
