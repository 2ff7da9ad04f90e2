package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 订阅套餐
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// BasicPlanBookLimit 基础套餐最多可选书籍数
const BasicPlanBookLimit = 10

// Subscription 订阅模型，每个用户最多一行
type Subscription struct {
	ID            uint                      `gorm:"primaryKey" json:"id"`
	UserID        uint                      `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanType      string                    `gorm:"type:varchar(20);not null;comment:basic,premium" json:"plan_type"`
	SelectedBooks datatypes.JSONSlice[uint] `json:"selected_books"` // premium 为 null
	Price         decimal.Decimal           `gorm:"type:decimal(10,2);not null" json:"price"`
	ExpiryDate    time.Time                 `gorm:"index;not null" json:"expiry_date"`
	CreatedAt     time.Time                 `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`

	// 关联关系
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// ActiveAt 订阅在 t 时刻是否有效
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s.ExpiryDate.After(t)
}

// Covers 订阅是否包含某本书
func (s *Subscription) Covers(bookID uint) bool {
	switch s.PlanType {
	case PlanPremium:
		return true
	case PlanBasic:
		for _, id := range s.SelectedBooks {
			if id == bookID {
				return true
			}
		}
	}
	return false
}
