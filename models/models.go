package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// 价格以JSON数字输出
	decimal.MarshalJSONWithoutQuotes = true
}

// AutoMigrate 迁移所有表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Book{},
		&Borrow{},
		&Subscription{},
		&Rating{},
		&Wishlist{},
	)
}

// BorrowActiveAt 查询在 t 时刻处于借阅窗口内的记录
func BorrowActiveAt(t time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("borrowed_at <= ? AND expires_at >= ?", t, t)
	}
}

// BorrowUnexpiredAt 查询在 t 时刻尚未到期的记录
func BorrowUnexpiredAt(t time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expires_at > ?", t)
	}
}

// SubscriptionActiveAt 查询在 t 时刻有效的订阅
func SubscriptionActiveAt(t time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expiry_date > ?", t)
	}
}
