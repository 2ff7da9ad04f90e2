package controllers

import (
	"github.com/gin-gonic/gin"

	"readova/services"
	"readova/utils"
)

// SubscriptionController 订阅控制器
type SubscriptionController struct {
	subscriptionService *services.SubscriptionService
}

// NewSubscriptionController 创建订阅控制器实例
func NewSubscriptionController(subscriptionService *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

// Checkout 购买或续订订阅
// @Summary 订阅下单
// @Description basic 计划最多选择10本书，premium 计划覆盖全部书籍
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body services.CheckoutRequest true "订阅信息"
// @Success 200 {object} map[string]interface{}
// @Router /subscriptions/checkout [post]
func (sc *SubscriptionController) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	if userID, ok := bodyUserID(c, req.UserID); ok {
		req.UserID = userID
	}

	subscription, err := sc.subscriptionService.Checkout(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Subscription successful", gin.H{"subscription": subscription})
}
