package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type DebtController struct {
	ledger *services.Ledger
	audit  auditor
}

func NewDebtController(ledger *services.Ledger, logs *services.SystemLogService) *DebtController {
	return &DebtController{ledger: ledger, audit: auditor{logs: logs}}
}

// List returns debts and the totals. ?status=all includes repaid debts.
func (dc *DebtController) List(c *gin.Context) {
	ctx := c.Request.Context()
	debts, err := dc.ledger.ListDebts(ctx, c.Query("status") != "all")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	summary, err := dc.ledger.DebtSummary(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Debts", gin.H{
		"debts":   debts,
		"summary": summary,
	})
}

func (dc *DebtController) Detail(c *gin.Context) {
	id, ok := paramID(c, "debt_id")
	if !ok {
		return
	}
	detail, err := dc.ledger.DebtDetail(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Debt detail", detail)
}

func (dc *DebtController) Register(c *gin.Context) {
	var in services.RegisterDebtInput
	if !bindBody(c, &in) {
		return
	}
	debt, err := dc.ledger.RegisterDebt(c.Request.Context(), middlewares.ActorFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	dc.audit.record(c, services.ActionRegisterDebt,
		fmt.Sprintf("Debt %d registered for %s: %s", debt.ID, in.CustomerName, utils.FormatCurrencyJPY(debt.Amount)))
	utils.RespondJSON(c, http.StatusCreated, "Debt registered", debt)
}

func (dc *DebtController) RecordPayment(c *gin.Context) {
	id, ok := paramID(c, "debt_id")
	if !ok {
		return
	}
	var req struct {
		Amount float64 `json:"amount" form:"amount"`
	}
	if !bindBody(c, &req) {
		return
	}
	debt, err := dc.ledger.RecordPayment(c.Request.Context(), middlewares.ActorFrom(c), id, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	dc.audit.record(c, services.ActionRecordPayment,
		fmt.Sprintf("Payment of %s on debt %d, %s remaining", utils.FormatCurrencyJPY(req.Amount),
			debt.ID, utils.FormatCurrencyJPY(debt.RemainingAmount)))
	utils.RespondJSON(c, http.StatusOK, "Payment recorded", debt)
}
