package models

import "time"

// Wishlist 心愿单，存在即表示已收藏
type Wishlist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_wishlists_user_book;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_wishlists_user_book;index;not null" json:"book_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// 关联关系
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// TableName 指定表名
func (Wishlist) TableName() string {
	return "wishlists"
}
