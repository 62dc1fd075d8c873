package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/kds"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

var errInvalidQuantity = errors.New("quantities must be whole numbers")

type SessionController struct {
	ledger *services.Ledger
	hub    *kds.Hub
	audit  auditor
}

func NewSessionController(ledger *services.Ledger, logs *services.SystemLogService, hub *kds.Hub) *SessionController {
	return &SessionController{ledger: ledger, hub: hub, audit: auditor{logs: logs}}
}

// FloorState returns everything the floor screen needs in one call.
func (sc *SessionController) FloorState(c *gin.Context) {
	ctx := c.Request.Context()
	sessions, err := sc.ledger.ActiveSessions(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tables, err := sc.ledger.AvailableTables(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	casts, err := sc.ledger.FreeCasts(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Floor state", gin.H{
		"active_sessions":  sessions,
		"available_tables": tables,
		"free_casts":       casts,
	})
}

func (sc *SessionController) ActiveSessions(c *gin.Context) {
	sessions, err := sc.ledger.ActiveSessions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active sessions", sessions)
}

func (sc *SessionController) FreeCasts(c *gin.Context) {
	casts, err := sc.ledger.FreeCasts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Free casts", casts)
}

func (sc *SessionController) AvailableTables(c *gin.Context) {
	tables, err := sc.ledger.AvailableTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables", tables)
}

func (sc *SessionController) Open(c *gin.Context) {
	var in services.OpenSessionInput
	if !bindBody(c, &in) {
		return
	}
	session, err := sc.ledger.OpenSession(c.Request.Context(), middlewares.ActorFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sc.hub.SessionOpened(*session)
	sc.audit.record(c, services.ActionOpenSession,
		fmt.Sprintf("Session %d opened at table %d for %s", session.ID, session.TableID, in.CustomerName))
	utils.RespondJSON(c, http.StatusCreated, "Session opened", session)
}

// addOrdersRequest takes JSON items, or form fields quantities[<menu_item_id>]=<qty>.
type addOrdersRequest struct {
	TableID uint                 `json:"table_id" form:"table_id"`
	Items   []services.OrderLine `json:"items" form:"-"`
}

func bindOrders(c *gin.Context) (addOrdersRequest, bool) {
	var req addOrdersRequest
	if !bindBody(c, &req) {
		return req, false
	}
	if len(req.Items) > 0 {
		return req, true
	}
	for k, v := range c.PostFormMap("quantities") {
		id, err1 := strconv.ParseUint(k, 10, 64)
		qty, err2 := strconv.Atoi(v)
		if err1 != nil || err2 != nil {
			utils.RespondError(c, http.StatusBadRequest, errInvalidQuantity)
			return req, false
		}
		req.Items = append(req.Items, services.OrderLine{MenuItemID: uint(id), Quantity: qty})
	}
	sort.Slice(req.Items, func(i, j int) bool { return req.Items[i].MenuItemID < req.Items[j].MenuItemID })
	return req, true
}

// AddOrders accepts lines for the session in the path.
func (sc *SessionController) AddOrders(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	req, ok := bindOrders(c)
	if !ok {
		return
	}
	orders, err := sc.ledger.AddOrders(c.Request.Context(), middlewares.ActorFrom(c), id, req.Items)
	sc.respondOrders(c, orders, err)
}

// AddOrdersForTable accepts lines keyed by table, for the order screen.
func (sc *SessionController) AddOrdersForTable(c *gin.Context) {
	req, ok := bindOrders(c)
	if !ok {
		return
	}
	orders, err := sc.ledger.AddOrdersForTable(c.Request.Context(), middlewares.ActorFrom(c), req.TableID, req.Items)
	sc.respondOrders(c, orders, err)
}

func (sc *SessionController) respondOrders(c *gin.Context, orders []models.Order, err error) {
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sc.hub.OrdersAdded(orders)
	sc.audit.record(c, services.ActionAddOrders,
		fmt.Sprintf("%d order lines added to session %d", len(orders), orders[0].SessionID))
	utils.RespondJSON(c, http.StatusCreated, "Orders added", orders)
}

func (sc *SessionController) ChangeCast(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	var req struct {
		CastID uint `json:"cast_id" form:"cast_id"`
	}
	if !bindBody(c, &req) {
		return
	}
	session, err := sc.ledger.ChangeCast(c.Request.Context(), middlewares.ActorFrom(c), id, req.CastID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sc.hub.CastChanged(*session)
	sc.audit.record(c, services.ActionChangeCast,
		fmt.Sprintf("Session %d cast changed to %d", session.ID, req.CastID))
	utils.RespondJSON(c, http.StatusOK, "Cast changed", session)
}

func (sc *SessionController) MoveTable(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	var req struct {
		TableID uint   `json:"table_id" form:"table_id"`
		Reason  string `json:"reason" form:"reason"`
	}
	if !bindBody(c, &req) {
		return
	}
	session, err := sc.ledger.MoveTable(c.Request.Context(), middlewares.ActorFrom(c), id, req.TableID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sc.hub.TableMoved(*session)
	sc.audit.record(c, services.ActionMoveTable,
		fmt.Sprintf("Session %d moved to table %d: %s", session.ID, req.TableID, req.Reason))
	utils.RespondJSON(c, http.StatusOK, "Table moved", session)
}

func (sc *SessionController) PreviewCheckout(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	summary, err := sc.ledger.PreviewCheckout(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout preview", summary)
}

func (sc *SessionController) Checkout(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	result, err := sc.ledger.Checkout(c.Request.Context(), middlewares.ActorFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sc.hub.SessionCheckedOut(result.Session)
	sc.audit.record(c, services.ActionCheckout,
		fmt.Sprintf("Session %d checked out for %s", result.Session.ID, utils.FormatCurrencyJPY(result.Bill.Total)))
	utils.RespondJSON(c, http.StatusOK, "Checkout completed", result)
}

// Customers powers the customer-name autocomplete.
func (sc *SessionController) Customers(c *gin.Context) {
	rows, err := sc.ledger.Customers(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 20))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customers", rows)
}
