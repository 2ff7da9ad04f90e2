package services

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"readova/models"
)

const recentListSize = 5

// StatsService 管理后台统计
type StatsService struct {
	*Deps
}

// NewStatsService 创建统计服务实例
func NewStatsService(d *Deps) *StatsService {
	return &StatsService{Deps: d}
}

// DashboardStats 后台统计数据
type DashboardStats struct {
	TotalUsers          int64                 `json:"total_users"`
	TotalBooks          int64                 `json:"total_books"`
	ActiveSubscriptions int64                 `json:"active_subscriptions"`
	MonthlyRevenue      decimal.Decimal       `json:"monthly_revenue"`
	RecentBorrows       []models.Borrow       `json:"recent_borrows"`
	RecentSubscriptions []models.Subscription `json:"recent_subscriptions"`
	NewUsers            []models.User         `json:"new_users"`
}

// Dashboard 汇总统计
// 月收入为本自然月（UTC）内借阅与订阅金额之和
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	db := s.DB.WithContext(ctx)

	stats := &DashboardStats{}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, errors.Annotate(err, "count users")
	}
	if err := db.Model(&models.Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, errors.Annotate(err, "count books")
	}
	if err := db.Model(&models.Subscription{}).
		Scopes(models.SubscriptionActiveAt(now)).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, errors.Annotate(err, "count subscriptions")
	}

	borrowRevenue, err := sumPrice(db.Model(&models.Borrow{}).Where("created_at >= ?", monthStart))
	if err != nil {
		return nil, errors.Annotate(err, "sum borrow revenue")
	}
	subscriptionRevenue, err := sumPrice(db.Model(&models.Subscription{}).Where("updated_at >= ?", monthStart))
	if err != nil {
		return nil, errors.Annotate(err, "sum subscription revenue")
	}
	stats.MonthlyRevenue = borrowRevenue.Add(subscriptionRevenue).Round(2)

	if err := db.Preload("Book").Preload("User").
		Order("created_at DESC, id DESC").Limit(recentListSize).
		Find(&stats.RecentBorrows).Error; err != nil {
		return nil, errors.Annotate(err, "recent borrows")
	}
	if err := db.Preload("User").
		Order("updated_at DESC, id DESC").Limit(recentListSize).
		Find(&stats.RecentSubscriptions).Error; err != nil {
		return nil, errors.Annotate(err, "recent subscriptions")
	}
	if err := db.Order("created_at DESC, id DESC").Limit(recentListSize).
		Find(&stats.NewUsers).Error; err != nil {
		return nil, errors.Annotate(err, "new users")
	}

	return stats, nil
}

// sumPrice 汇总 price 列
func sumPrice(query *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := query.Select("SUM(price)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
