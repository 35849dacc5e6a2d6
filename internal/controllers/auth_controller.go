package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/middleware"
	"matatu_manager/internal/services"
)

type AuthController struct {
	users *services.UserService
}

func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutInput struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindJSON(c, &input) {
		return
	}
	tokens, err := h.users.Login(c.Request.Context(), input)
	if err != nil {
		logrus.WithField("email", input.Email).Info("Login: rejected")
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthController) Refresh(c *gin.Context) {
	var input refreshInput
	if !bindJSON(c, &input) {
		return
	}
	tokens, err := h.users.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Logout revokes the caller's access token and the refresh token in the body, if any.
func (h *AuthController) Logout(c *gin.Context) {
	var input logoutInput
	_ = c.ShouldBindJSON(&input)
	if err := h.users.Logout(c.Request.Context(), middleware.Claims(c), input.RefreshToken); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthController) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthController) UpdateMe(c *gin.Context) {
	var input services.ProfileInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.UpdateMe(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthController) ListUsers(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	users, err := h.users.List(c.Request.Context(), p)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
