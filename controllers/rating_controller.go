package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/services"
	"readova/utils"
)

// RatingController 评分控制器
type RatingController struct {
	ratingService *services.RatingService
}

// NewRatingController 创建评分控制器实例
func NewRatingController(ratingService *services.RatingService) *RatingController {
	return &RatingController{ratingService: ratingService}
}

// Rate 给书籍评分
// @Summary 评分
// @Description 同一用户对同一本书只保留最后一次评分
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body services.RateRequest true "评分"
// @Success 200 {object} map[string]interface{}
// @Router /rate [post]
func (rc *RatingController) Rate(c *gin.Context) {
	var req services.RateRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, ok := bodyUserID(c, req.UserID)
	if !ok {
		utils.ValidationError(c, "Invalid input", userIDRequired)
		return
	}
	req.UserID = userID

	rating, average, err := rc.ratingService.Rate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Rating saved", gin.H{
		"rating":  rating,
		"average": average,
	})
}
