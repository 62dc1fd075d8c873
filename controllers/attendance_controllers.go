package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type AttendanceController struct {
	attendance *services.AttendanceService
	audit      auditor
}

func NewAttendanceController(attendance *services.AttendanceService, logs *services.SystemLogService) *AttendanceController {
	return &AttendanceController{attendance: attendance, audit: auditor{logs: logs}}
}

type attendanceRequest struct {
	UserID uint `json:"user_id" form:"user_id"`
}

// target is the user being clocked: the body's user_id for admins, otherwise
// the caller.
func target(c *gin.Context) (uint, bool) {
	var req attendanceRequest
	if c.Request.ContentLength > 0 && !bindBody(c, &req) {
		return 0, false
	}
	if req.UserID == 0 {
		req.UserID = middlewares.ActorFrom(c).UserID
	}
	return req.UserID, true
}

func (ac *AttendanceController) CheckIn(c *gin.Context) {
	userID, ok := target(c)
	if !ok {
		return
	}
	rec, err := ac.attendance.CheckIn(c.Request.Context(), middlewares.ActorFrom(c), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ac.audit.record(c, services.ActionAttendance, fmt.Sprintf("User %d checked in", userID))
	utils.RespondJSON(c, http.StatusOK, "Checked in", rec)
}

func (ac *AttendanceController) CheckOut(c *gin.Context) {
	userID, ok := target(c)
	if !ok {
		return
	}
	rec, err := ac.attendance.CheckOut(c.Request.Context(), middlewares.ActorFrom(c), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ac.audit.record(c, services.ActionAttendance, fmt.Sprintf("User %d checked out", userID))
	utils.RespondJSON(c, http.StatusOK, "Checked out", rec)
}

func (ac *AttendanceController) Today(c *gin.Context) {
	rows, err := ac.attendance.Today(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Today's attendance", rows)
}

func (ac *AttendanceController) History(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}
	recs, err := ac.attendance.History(c.Request.Context(), services.AttendanceFilter{
		From:   r.From,
		To:     r.To,
		UserID: queryUint(c, "user_id"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Attendance history", recs)
}

// Monthly takes ?month=YYYY-MM, defaulting to this month.
func (ac *AttendanceController) Monthly(c *gin.Context) {
	month := time.Now()
	if v := c.Query("month"); v != "" {
		t, err := time.ParseInLocation("2006-01", v, time.Local)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errInvalidDate)
			return
		}
		month = t
	}
	rows, err := ac.attendance.MonthlySummary(c.Request.Context(), month)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Monthly attendance", rows)
}
