package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 书籍模型
// authors/categories 只保存来源数据中的第一个值
type Book struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	GoogleID      *string         `gorm:"type:varchar(64);uniqueIndex;comment:Google Books volume id" json:"google_id"`
	Title         string          `gorm:"type:varchar(255);not null;index" json:"title"`
	Authors       string          `gorm:"type:varchar(255);index" json:"authors"`
	Description   string          `gorm:"type:text" json:"description"`
	Thumbnail     string          `gorm:"type:varchar(512)" json:"thumbnail"`
	Categories    string          `gorm:"type:varchar(255);index" json:"categories"`
	PublishedDate string          `gorm:"type:varchar(32)" json:"published_date"`
	InfoLink      string          `gorm:"type:varchar(512)" json:"info_link"`
	PageCount     int             `gorm:"default:0" json:"page_count"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0;comment:每日借阅价格" json:"price"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// 读取时计算，不落库
	Rating      float64 `gorm:"-" json:"rating"`
	PreviewLink *string `gorm:"-" json:"preview_link"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// ExternalID 返回Google Books id，没有时为空串
func (b *Book) ExternalID() string {
	if b.GoogleID == nil {
		return ""
	}
	return *b.GoogleID
}
