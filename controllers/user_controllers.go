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

type UserController struct {
	users *services.UserService
	audit auditor
	// secureCookie marks the token cookie Secure; set in release mode.
	secureCookie bool
}

func NewUserController(users *services.UserService, logs *services.SystemLogService, secureCookie bool) *UserController {
	return &UserController{users: users, audit: auditor{logs: logs}, secureCookie: secureCookie}
}

// Login returns a JWT and also sets it as an HttpOnly cookie for browser clients.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if !bindBody(c, &input) {
		return
	}

	result, err := uc.users.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.TokenCookie, result.Token, int(utils.TokenTTL()/time.Second), "/", "", uc.secureCookie, true)
	c.Set(middlewares.CtxUserID, result.User.ID)
	c.Set(middlewares.CtxRole, result.User.Role)
	uc.audit.record(c, services.ActionLogin, fmt.Sprintf("%s logged in", result.User.Username))
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     result.Token,
		"user_role": result.User.Role,
		"user":      result.User,
	})
}

// Logout revokes the current token and clears the cookie.
func (uc *UserController) Logout(c *gin.Context) {
	utils.RevokeToken(c.GetString(middlewares.CtxToken), middlewares.TokenExpiry(c))
	c.SetCookie(middlewares.TokenCookie, "", -1, "/", "", uc.secureCookie, true)
	uc.audit.record(c, services.ActionLogout, "Logged out")
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.users.Get(c.Request.Context(), middlewares.ActorFrom(c).UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}

// GetAllUsers takes ?role= and ?active=true.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := uc.users.List(c.Request.Context(), services.UserFilter{
		Role:       c.Query("role"),
		ActiveOnly: c.Query("active") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of users", users)
}

func (uc *UserController) CreateUser(c *gin.Context) {
	var in services.UserInput
	if !bindBody(c, &in) {
		return
	}
	user, err := uc.users.Create(c.Request.Context(), middlewares.ActorFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	uc.audit.record(c, services.ActionMasterData, fmt.Sprintf("User %s created (role=%s)", user.Username, user.Role))
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var in services.UserInput
	if !bindBody(c, &in) {
		return
	}
	user, err := uc.users.Update(c.Request.Context(), middlewares.ActorFrom(c), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	uc.audit.record(c, services.ActionMasterData, fmt.Sprintf("User %s updated", user.Username))
	utils.RespondJSON(c, http.StatusOK, "User updated", user)
}

func (uc *UserController) DeactivateUser(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	user, err := uc.users.Deactivate(c.Request.Context(), middlewares.ActorFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	uc.audit.record(c, services.ActionMasterData, fmt.Sprintf("User %s deactivated", user.Username))
	utils.RespondJSON(c, http.StatusOK, "User deactivated", user)
}
