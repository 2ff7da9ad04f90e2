package services

import (
	"context"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"readova/catalog"
	"readova/models"
)

// Access 预览权限判定结果
type Access struct {
	PreviewAccess bool    `json:"preview_access"`
	Rating        float64 `json:"rating"`
	PreviewLink   *string `json:"preview_link"`
}

// EntitlementService 预览权限服务
// 判定顺序：有效借阅 -> premium 订阅 -> basic 订阅所选书籍 -> 拒绝
type EntitlementService struct {
	*Deps
}

// NewEntitlementService 创建权限服务实例
func NewEntitlementService(d *Deps) *EntitlementService {
	return &EntitlementService{Deps: d}
}

// Resolve 计算用户对书籍的预览权限以及展示字段
// userID 为nil表示匿名用户，直接拒绝且不查询借阅/订阅
func (s *EntitlementService) Resolve(ctx context.Context, userID *uint, book *models.Book) (*Access, error) {
	rating, err := s.AverageRating(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	access := &Access{
		Rating:      rating,
		PreviewLink: catalog.PreviewLink(book.ExternalID()),
	}
	if userID == nil {
		return access, nil
	}

	allowed, err := s.CanPreview(ctx, *userID, book.ID)
	if err != nil {
		return nil, err
	}
	access.PreviewAccess = allowed
	return access, nil
}

// CanPreview 用户当前是否可以预览书籍
func (s *EntitlementService) CanPreview(ctx context.Context, userID, bookID uint) (bool, error) {
	now := s.now()
	db := s.DB.WithContext(ctx)

	// 1. 借阅窗口内
	var borrows int64
	if err := db.Model(&models.Borrow{}).
		Scopes(models.BorrowActiveAt(now)).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&borrows).Error; err != nil {
		return false, errors.Annotate(err, "check active borrow")
	}
	if borrows > 0 {
		return true, nil
	}

	// 2. 有效订阅
	var sub models.Subscription
	err := db.Scopes(models.SubscriptionActiveAt(now)).
		Where("user_id = ?", userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Annotate(err, "load subscription")
	}

	// 3. premium 全部可读，basic 只限所选书籍
	return sub.Covers(bookID), nil
}

// AverageRating 书籍平均评分，保留一位小数，没有评分时为0
func (s *EntitlementService) AverageRating(ctx context.Context, bookID uint) (float64, error) {
	ratings, err := s.AverageRatings(ctx, []uint{bookID})
	if err != nil {
		return 0, err
	}
	return ratings[bookID], nil
}

// AverageRatings 批量计算平均评分
func (s *EntitlementService) AverageRatings(ctx context.Context, bookIDs []uint) (map[uint]float64, error) {
	result := make(map[uint]float64, len(bookIDs))
	if len(bookIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		BookID  uint
		Average float64
	}
	if err := s.DB.WithContext(ctx).Model(&models.Rating{}).
		Select("book_id, AVG(rating) AS average").
		Where("book_id IN ?", bookIDs).
		Group("book_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Annotate(err, "aggregate ratings")
	}

	for _, row := range rows {
		result[row.BookID] = roundRating(row.Average)
	}
	return result, nil
}

// decorateBooks 填充评分和预览链接
func (s *EntitlementService) decorateBooks(ctx context.Context, books []models.Book) error {
	ids := make([]uint, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	ratings, err := s.AverageRatings(ctx, ids)
	if err != nil {
		return err
	}
	for i := range books {
		books[i].Rating = ratings[books[i].ID]
		books[i].PreviewLink = catalog.PreviewLink(books[i].ExternalID())
	}
	return nil
}

func roundRating(avg float64) float64 {
	return decimal.NewFromFloat(avg).Round(1).InexactFloat64()
}
