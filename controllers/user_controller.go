package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/middleware"
	"readova/services"
	"readova/utils"
)

// UserController 用户控制器
type UserController struct {
	authService *services.AuthService
}

// NewUserController 创建用户控制器实例
func NewUserController(authService *services.AuthService) *UserController {
	return &UserController{authService: authService}
}

// DeleteUserRequest 删除用户请求
type DeleteUserRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// GetUser 按邮箱获取用户
// @Summary 获取用户信息
// @Tags users
// @Produce json
// @Param email query string true "邮箱"
// @Success 200 {object} map[string]interface{}
// @Router /user [get]
func (uc *UserController) GetUser(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		utils.ValidationError(c, "Invalid input", map[string]string{"email": "The email field is required."})
		return
	}

	user, err := uc.authService.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "", gin.H{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	})
}

// DeleteUser 删除用户（本人或管理员）
// @Summary 删除用户
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteUserRequest true "邮箱"
// @Success 200 {object} map[string]interface{}
// @Router /delete [post]
func (uc *UserController) DeleteUser(c *gin.Context) {
	var req DeleteUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := uc.authService.DeleteUser(c.Request.Context(), middleware.CurrentClaims(c), req.Email); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "User deleted successfully", nil)
}

// ListUsers 用户列表（管理员）
// @Summary 用户列表
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /allusers [get]
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"users": users})
}
