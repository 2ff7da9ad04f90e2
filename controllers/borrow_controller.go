package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/services"
	"readova/utils"
)

// BorrowController 借阅控制器
type BorrowController struct {
	borrowService *services.BorrowService
}

// NewBorrowController 创建借阅控制器实例
func NewBorrowController(borrowService *services.BorrowService) *BorrowController {
	return &BorrowController{borrowService: borrowService}
}

// Borrow 借阅书籍
// @Summary 借阅书籍
// @Description 按天借阅，同一时间只能有一本未到期的借阅
// @Tags borrows
// @Accept json
// @Produce json
// @Param request body services.BorrowRequest true "借阅信息"
// @Success 200 {object} map[string]interface{}
// @Router /borrow [post]
func (bc *BorrowController) Borrow(c *gin.Context) {
	var req services.BorrowRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, ok := bodyUserID(c, req.UserID)
	if !ok {
		utils.ValidationError(c, "Invalid input", userIDRequired)
		return
	}
	req.UserID = userID

	borrow, err := bc.borrowService.Borrow(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Book borrowed successfully", gin.H{"borrow": borrow})
}
