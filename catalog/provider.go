package catalog

import (
	"context"
	"fmt"
)

// Volume 从外部书目源映射得到的书籍条目
type Volume struct {
	GoogleID      string
	Title         string
	Authors       string
	Description   string
	Thumbnail     string
	Categories    string
	PublishedDate string
	InfoLink      string
	PageCount     int
}

// Provider 外部书目源
type Provider interface {
	// Search 按关键词查询，只返回可预览的条目
	Search(ctx context.Context, query string, maxResults int) ([]Volume, error)
}

// 查询数量上限（Google Books 单次最多40条）
const (
	DefaultMaxResults = 20
	MaxResultsLimit   = 40
)

// ClampMaxResults 规范化单次查询数量
func ClampMaxResults(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	if n > MaxResultsLimit {
		return MaxResultsLimit
	}
	return n
}

const previewLinkFormat = "https://books.google.com/books?id=%s&printsec=frontcover&output=embed"

// PreviewLink 生成嵌入式预览链接，无外部id时返回nil
func PreviewLink(googleID string) *string {
	if googleID == "" {
		return nil
	}
	link := fmt.Sprintf(previewLinkFormat, googleID)
	return &link
}
