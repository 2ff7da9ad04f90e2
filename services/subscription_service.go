package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readova/models"
	"readova/utils"
)

// 订阅相关提示
const (
	ActivePlanMessage     = "You already have a Plan. Please Contact the Administrator."
	BasicPlanLimitMessage = "You can select up to 10 books only for the basic plan"
)

// SubscriptionService 订阅服务
type SubscriptionService struct {
	*Deps
}

// NewSubscriptionService 创建订阅服务实例
func NewSubscriptionService(d *Deps) *SubscriptionService {
	return &SubscriptionService{Deps: d}
}

// CheckoutRequest 订阅下单请求
type CheckoutRequest struct {
	UserID        uint             `json:"user_id"`
	PlanType      string           `json:"plan_type"`
	Price         *decimal.Decimal `json:"price"`
	SelectedBooks []uint           `json:"selected_books"`
}

// UnmarshalJSON id 字段同时接受数字与数字字符串
func (r *CheckoutRequest) UnmarshalJSON(data []byte) error {
	type alias CheckoutRequest
	aux := struct {
		*alias
		UserID utils.FlexibleID `json:"user_id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.UserID = aux.UserID.Uint()
	return nil
}

// Checkout 创建或续订订阅
// 顺序：输入校验 -> 已有有效订阅 -> basic 数量上限 -> 按 user_id upsert
func (s *SubscriptionService) Checkout(ctx context.Context, req *CheckoutRequest) (*models.Subscription, error) {
	now := s.now()
	var sub models.Subscription

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 输入校验
		if err := s.validateCheckout(tx, req); err != nil {
			return err
		}

		// 2. 已有有效订阅不允许重复购买
		var active int64
		if err := tx.Model(&models.Subscription{}).
			Scopes(models.SubscriptionActiveAt(now)).
			Where("user_id = ?", req.UserID).
			Count(&active).Error; err != nil {
			return errors.Annotate(err, "count active subscriptions")
		}
		if active > 0 {
			return newForbidden(ActivePlanMessage)
		}

		// 3. basic 套餐最多选10本
		if req.PlanType == models.PlanBasic && len(req.SelectedBooks) > models.BasicPlanBookLimit {
			return newValidationMessage(BasicPlanLimitMessage)
		}

		// 4. upsert
		row := models.Subscription{
			UserID:     req.UserID,
			PlanType:   req.PlanType,
			Price:      req.Price.Round(2),
			ExpiryDate: now.AddDate(0, 1, 0),
		}
		if req.PlanType == models.PlanBasic {
			row.SelectedBooks = dedupeIDs(req.SelectedBooks)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan_type", "selected_books", "price", "expiry_date", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return errors.Annotate(err, "upsert subscription")
		}

		// 5. 重新读取（冲突更新时主键不一定回填）
		if err := tx.Where("user_id = ?", req.UserID).First(&sub).Error; err != nil {
			return errors.Annotate(err, "reload subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("subscription checkout",
		zap.Uint("user_id", sub.UserID),
		zap.String("plan_type", sub.PlanType),
		zap.Time("expiry_date", sub.ExpiryDate),
	)

	s.publishEvent(ctx, "subscription_created", map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         sub.UserID,
		"plan_type":       sub.PlanType,
		"price":           sub.Price.String(),
	})

	return &sub, nil
}

// validateCheckout 校验下单输入，所有字段错误一次性返回
func (s *SubscriptionService) validateCheckout(tx *gorm.DB, req *CheckoutRequest) error {
	fields := make(map[string]string)

	var user models.User
	if err := lockForUpdate(tx).First(&user, req.UserID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Annotate(err, "load user")
		}
		fields["user_id"] = "The selected user id is invalid."
	}

	if req.PlanType != models.PlanBasic && req.PlanType != models.PlanPremium {
		fields["plan_type"] = "The selected plan type is invalid."
	}

	if req.Price == nil {
		fields["price"] = "The price field is required."
	} else if req.Price.IsNegative() {
		fields["price"] = "The price field must be at least 0."
	}

	if len(req.SelectedBooks) > 0 {
		ids := dedupeIDs(req.SelectedBooks)
		for i, id := range req.SelectedBooks {
			if id == 0 {
				fields[fmt.Sprintf("selected_books.%d", i)] = "The selected book id is invalid."
			}
		}
		var found int64
		if err := tx.Model(&models.Book{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return errors.Annotate(err, "count selected books")
		}
		if int(found) != len(ids) {
			fields["selected_books"] = "The selected books must exist."
		}
	}

	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

// dedupeIDs 去重并保持顺序
func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
