package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/services"
	"readova/utils"
)

// WishlistController 心愿单控制器
type WishlistController struct {
	wishlistService *services.WishlistService
}

// NewWishlistController 创建心愿单控制器实例
func NewWishlistController(wishlistService *services.WishlistService) *WishlistController {
	return &WishlistController{wishlistService: wishlistService}
}

// Toggle 加入/移出心愿单
// @Summary 切换心愿单
// @Tags wishlist
// @Accept json
// @Produce json
// @Param request body services.WishlistRequest true "书籍"
// @Success 200 {object} map[string]interface{}
// @Router /wishlist/toggle [post]
func (wc *WishlistController) Toggle(c *gin.Context) {
	var req services.WishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, ok := bodyUserID(c, req.UserID)
	if !ok {
		utils.ValidationError(c, "Invalid input", userIDRequired)
		return
	}
	req.UserID = userID

	inWishlist, err := wc.wishlistService.Toggle(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Removed from wishlist"
	if inWishlist {
		message = "Added to wishlist"
	}
	utils.Success(c, message, gin.H{"in_wishlist": inWishlist})
}

// List 心愿单书籍
// @Summary 心愿单列表
// @Tags wishlist
// @Produce json
// @Param user_id query int true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Router /wishlist [get]
func (wc *WishlistController) List(c *gin.Context) {
	userID := queryUserID(c)
	if userID == nil {
		utils.ValidationError(c, "Invalid input", userIDRequired)
		return
	}

	books, err := wc.wishlistService.List(c.Request.Context(), *userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"books": books})
}

// Check 是否在心愿单中
// @Summary 心愿单检查
// @Tags wishlist
// @Produce json
// @Param id path int true "书籍ID"
// @Param user_id query int true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Router /wishlist/check/{id} [get]
func (wc *WishlistController) Check(c *gin.Context) {
	bookID, ok := paramID(c)
	if !ok {
		utils.NotFound(c, "Book not found")
		return
	}

	userID := queryUserID(c)
	if userID == nil {
		// 匿名用户没有心愿单
		utils.Success(c, "", gin.H{"in_wishlist": false})
		return
	}

	inWishlist, err := wc.wishlistService.Contains(c.Request.Context(), *userID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"in_wishlist": inWishlist})
}
