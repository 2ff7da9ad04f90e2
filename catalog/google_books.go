package catalog

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

// 默认值（来源数据缺失时使用）
const (
	DefaultTitle       = "No title"
	DefaultAuthor      = "Unknown"
	DefaultDescription = "No description"
	DefaultCategory    = "General"
)

// GoogleBooks 基于 Google Books API 的书目源
type GoogleBooks struct {
	service *books.Service
}

// NewGoogleBooks 创建 Google Books 客户端
// endpoint 为空时使用官方地址
func NewGoogleBooks(ctx context.Context, apiKey, endpoint string) (*GoogleBooks, error) {
	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	service, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "create google books client")
	}
	return &GoogleBooks{service: service}, nil
}

// Search 查询并过滤出可预览的书籍
func (g *GoogleBooks) Search(ctx context.Context, query string, maxResults int) ([]Volume, error) {
	resp, err := g.service.Volumes.List(query).
		MaxResults(int64(ClampMaxResults(maxResults))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Annotatef(err, "search google books for %q", query)
	}

	volumes := make([]Volume, 0, len(resp.Items))
	for _, item := range resp.Items {
		if !Previewable(item) {
			continue
		}
		volumes = append(volumes, MapVolume(item))
	}
	return volumes, nil
}

// Previewable 条目是否提供可读预览：PDF可用，或可见性为 ALL_PAGES / FULL
func Previewable(v *books.Volume) bool {
	if v == nil || v.AccessInfo == nil {
		return false
	}
	if v.AccessInfo.Pdf != nil && v.AccessInfo.Pdf.IsAvailable {
		return true
	}
	switch v.AccessInfo.Viewability {
	case "ALL_PAGES", "FULL":
		return true
	}
	return false
}

// MapVolume 将 Google Books 条目映射为本地书籍字段
// 多值字段只保留第一个
func MapVolume(v *books.Volume) Volume {
	out := Volume{
		GoogleID:    v.Id,
		Title:       DefaultTitle,
		Authors:     DefaultAuthor,
		Description: DefaultDescription,
		Categories:  DefaultCategory,
	}

	info := v.VolumeInfo
	if info == nil {
		return out
	}

	if info.Title != "" {
		out.Title = info.Title
	}
	if len(info.Authors) > 0 && info.Authors[0] != "" {
		out.Authors = info.Authors[0]
	}
	if info.Description != "" {
		out.Description = info.Description
	}
	if len(info.Categories) > 0 && info.Categories[0] != "" {
		out.Categories = info.Categories[0]
	}
	if info.ImageLinks != nil {
		out.Thumbnail = info.ImageLinks.Thumbnail
	}
	out.PublishedDate = info.PublishedDate
	out.InfoLink = info.InfoLink
	out.PageCount = int(info.PageCount)
	return out
}
