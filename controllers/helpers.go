package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

var (
	errInvalidID   = errors.New("invalid id")
	errInvalidDate = errors.New("dates must be YYYY-MM-DD")
	errInternal    = errors.New("something went wrong, please try again")
)

const dateLayout = "2006-01-02"

// respondServiceError maps a service error to its status code. Store errors
// are logged with the request id and answered with a generic message.
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var ce *services.ConflictError
	switch {
	case errors.As(err, &ve):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &ce):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrForbidden):
		utils.RespondError(c, http.StatusForbidden, services.ErrForbidden)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, services.ErrNotFound)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondError(c, http.StatusUnauthorized, services.ErrInvalidCredentials)
	default:
		utils.ErrorLogger.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(middlewares.CtxRequestID),
			"error":      err,
		}).Error("request failed")
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errInvalidID)
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// dateRange reads ?from= and ?to=. Missing values default to the current
// month so far.
func dateRange(c *gin.Context) (services.DateRange, bool) {
	now := time.Now()
	r := services.DateRange{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local),
		To:   now,
	}
	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errInvalidDate)
			return r, false
		}
		r.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errInvalidDate)
			return r, false
		}
		r.To = t
	}
	return r, true
}

func bindBody(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBind(dst); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

// auditor records who did what from where. Controllers share one.
type auditor struct {
	logs *services.SystemLogService
}

func (a auditor) record(c *gin.Context, action, description string) {
	if a.logs == nil {
		return
	}
	a.logs.LogAction(c.Request.Context(), middlewares.ActorFrom(c), action, description,
		c.ClientIP(), c.Request.UserAgent())
}
