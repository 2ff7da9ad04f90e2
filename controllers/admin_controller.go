package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/services"
	"readova/utils"
)

// AdminController 管理后台控制器
type AdminController struct {
	statsService *services.StatsService
}

// NewAdminController 创建管理后台控制器实例
func NewAdminController(statsService *services.StatsService) *AdminController {
	return &AdminController{statsService: statsService}
}

// Stats 后台统计
// @Summary 后台统计
// @Description 用户数、书籍数、有效订阅数、本月收入以及最近记录
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /admin/stats [get]
func (ac *AdminController) Stats(c *gin.Context) {
	stats, err := ac.statsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{
		"total_users":          stats.TotalUsers,
		"total_books":          stats.TotalBooks,
		"active_subscriptions": stats.ActiveSubscriptions,
		"monthly_revenue":      stats.MonthlyRevenue,
		"recent_borrows":       stats.RecentBorrows,
		"recent_subscriptions": stats.RecentSubscriptions,
		"new_users":            stats.NewUsers,
	})
}
