package models

import "time"

// Rating 评分模型，(user_id, book_id) 唯一
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_ratings_user_book;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_ratings_user_book;index;not null" json:"book_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Rating) TableName() string {
	return "ratings"
}
