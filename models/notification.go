package models

import (
	"fmt"
	"time"
)

// Notification 新书通知（由书目数据派生，不落库）
type Notification struct {
	ID        uint      `json:"id"`
	BookID    uint      `json:"book_id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBookNotification 根据书籍生成通知
func NewBookNotification(b *Book) Notification {
	return Notification{
		ID:        b.ID,
		BookID:    b.ID,
		Title:     b.Title,
		Thumbnail: b.Thumbnail,
		Message:   fmt.Sprintf("New book added: %s", b.Title),
		CreatedAt: b.CreatedAt,
	}
}
