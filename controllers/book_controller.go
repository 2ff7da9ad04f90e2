package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"readova/catalog"
	"readova/services"
	"readova/utils"
)

// BookController 书籍控制器
type BookController struct {
	bookService *services.BookService
}

// NewBookController 创建书籍控制器实例
func NewBookController(bookService *services.BookService) *BookController {
	return &BookController{bookService: bookService}
}

// UpdatePriceRequest 修改价格请求
type UpdatePriceRequest struct {
	Price *decimal.Decimal `json:"price" binding:"required"`
}

// Ingest 从Google Books导入书籍（管理员）
// @Summary 导入书籍
// @Description 按关键词查询Google Books，按 google_id upsert 到书目
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param q query string true "关键词"
// @Param maxResults query int false "数量" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /books [get]
func (bc *BookController) Ingest(c *gin.Context) {
	maxResults := queryInt(c, "maxResults", catalog.DefaultMaxResults)

	books, err := bc.bookService.Ingest(c.Request.Context(), c.Query("q"), maxResults)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "", gin.H{
		"total": len(books),
		"books": books,
	})
}

// ShowBooks 书目列表/搜索
// @Summary 书目列表
// @Description 按标题、作者、分类模糊搜索，附带平均评分
// @Tags books
// @Produce json
// @Param q query string false "关键词"
// @Param limit query int false "数量" default(50)
// @Success 200 {object} map[string]interface{}
// @Router /showbooks [get]
func (bc *BookController) ShowBooks(c *gin.Context) {
	limit := queryInt(c, "limit", services.DefaultShowLimit)

	books, total, err := bc.bookService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "", gin.H{
		"total": total,
		"books": books,
	})
}

// GetBook 书籍详情与预览权限
// @Summary 书籍详情
// @Tags books
// @Produce json
// @Param id path int true "书籍ID"
// @Param user_id query int false "用户ID"
// @Success 200 {object} map[string]interface{}
// @Router /books/{id} [get]
func (bc *BookController) GetBook(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.NotFound(c, "Book not found")
		return
	}

	detail, err := bc.bookService.GetBookDetail(c.Request.Context(), id, queryUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "", gin.H{
		"book":           detail.Book,
		"preview_access": detail.PreviewAccess,
		"rating":         detail.Rating,
		"preview_link":   detail.PreviewLink,
	})
}

// DeleteBook 删除书籍（管理员）
// @Summary 删除书籍
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path int true "书籍ID"
// @Success 200 {object} map[string]interface{}
// @Router /deletebooks/{id} [delete]
func (bc *BookController) DeleteBook(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.NotFound(c, "Book not found")
		return
	}

	if err := bc.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Book deleted successfully", nil)
}

// UpdatePrice 修改每日借阅价格（管理员）
// @Summary 修改价格
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "书籍ID"
// @Param request body UpdatePriceRequest true "价格"
// @Success 200 {object} map[string]interface{}
// @Router /books/{id}/price [put]
func (bc *BookController) UpdatePrice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.NotFound(c, "Book not found")
		return
	}

	var req UpdatePriceRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.bookService.SetPrice(c.Request.Context(), id, *req.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Price updated successfully", gin.H{"book": book})
}

// SubscriptionBooks 订阅选书列表
// @Summary 订阅可选书籍
// @Tags subscriptions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /subscriptions/books [get]
func (bc *BookController) SubscriptionBooks(c *gin.Context) {
	books, err := bc.bookService.AllBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"books": books})
}

// Notifications 最新入库通知
// @Summary 新书通知
// @Tags books
// @Produce json
// @Param limit query int false "数量" default(5)
// @Success 200 {object} map[string]interface{}
// @Router /notifications [get]
func (bc *BookController) Notifications(c *gin.Context) {
	limit := queryInt(c, "limit", services.DefaultNotificationLimit)

	notifications, err := bc.bookService.Notifications(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"notifications": notifications})
}
