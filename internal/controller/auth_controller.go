package controller

import (
	"errors"

	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// AdminLoginRequest carries the operator credentials.
// swagger:model AdminLoginRequest
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin godoc
// @Summary Admin login
// @Description Authenticate the configured admin account and issue a JWT
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body AdminLoginRequest true "Admin credentials"
// @Success 200 {object} util.Response{data=service.LoginResult}
// @Failure 401 {object} util.Response "Invalid credentials"
// @Router /api/auth/admin/login [post]
func (c *AuthController) AdminLogin(ctx *gin.Context) {
	var req AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AuthService.AdminLogin(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredential) {
			util.Unauthorized(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// UserLoginRequest identifies a quiz taker by name only.
// swagger:model UserLoginRequest
type UserLoginRequest struct {
	Username string `json:"username" binding:"required"`
}

// UserLogin godoc
// @Summary Quiz taker login
// @Description Resolve or create the named user and issue a JWT
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body UserLoginRequest true "Username"
// @Success 200 {object} util.Response{data=service.LoginResult}
// @Failure 400 {object} util.Response "Invalid username"
// @Router /api/auth/login [post]
func (c *AuthController) UserLogin(ctx *gin.Context) {
	var req UserLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AuthService.UserLogin(req.Username)
	if err != nil {
		var verrs *util.ValidationErrors
		if errors.As(err, &verrs) {
			util.BadRequest(ctx, verrs.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
