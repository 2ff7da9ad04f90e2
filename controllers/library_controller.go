package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/services"
	"readova/utils"
)

// LibraryController 我的书架控制器
type LibraryController struct {
	libraryService *services.LibraryService
}

// NewLibraryController 创建书架控制器实例
func NewLibraryController(libraryService *services.LibraryService) *LibraryController {
	return &LibraryController{libraryService: libraryService}
}

// MyBooks 借阅中与订阅中的书籍
// @Summary 我的书架
// @Tags library
// @Produce json
// @Param user_id query int true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Router /library/my-books [get]
func (lc *LibraryController) MyBooks(c *gin.Context) {
	userID := queryUserID(c)
	if userID == nil {
		utils.ValidationError(c, "Invalid input", userIDRequired)
		return
	}

	library, err := lc.libraryService.MyBooks(c.Request.Context(), *userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{
		"borrowed_books":          library.BorrowedBooks,
		"subscribed_books":        library.SubscribedBooks,
		"plan_type":               library.PlanType,
		"subscription_expires_at": library.SubscriptionExpiresAt,
	})
}
