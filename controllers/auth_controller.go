package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readova/middleware"
	"readova/services"
	"readova/utils"
)

// AuthController 认证控制器
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController 创建认证控制器实例
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "注册信息"
// @Success 201 {object} map[string]interface{}
// @Router /register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.JSON(c, http.StatusCreated, utils.CodeSuccess, "User registered successfully", gin.H{
		"user":     user,
		"name":     user.Name,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	})
}

// Login 用户登录
// @Summary 用户登录
// @Description 验证邮箱密码，返回JWT token和管理员标记
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "登录信息"
// @Success 200 {object} map[string]interface{}
// @Router /login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := ac.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "Login successful", gin.H{
		"user":     user,
		"is_admin": user.IsAdmin,
		"token":    token,
	})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 将当前token加入黑名单
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.authService.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Logout successful", nil)
}
