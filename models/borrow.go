package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Borrow 借阅记录
// 到期只是读取时的时间比较，不存在状态字段
type Borrow struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	BookID     uint            `gorm:"index;not null" json:"book_id"`
	Days       int             `gorm:"not null" json:"days"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	BorrowedAt time.Time       `gorm:"index;not null" json:"borrowed_at"`
	ExpiresAt  time.Time       `gorm:"index;not null" json:"expires_at"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// 关联关系
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Borrow) TableName() string {
	return "borrows"
}

// ActiveAt 借阅窗口是否包含 t（两端闭区间）
func (b *Borrow) ActiveAt(t time.Time) bool {
	return !t.Before(b.BorrowedAt) && !t.After(b.ExpiresAt)
}
