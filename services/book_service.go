package services

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readova/catalog"
	"readova/models"
)

// 列表默认数量
const (
	DefaultShowLimit         = 50
	DefaultNotificationLimit = 5
	maxListLimit             = 200
)

// Notifier 新书通知推送
type Notifier interface {
	BookAdded(n models.Notification)
}

// BookService 书籍服务
type BookService struct {
	*Deps
	provider    catalog.Provider
	pricing     catalog.PricingPolicy
	entitlement *EntitlementService
	notifier    Notifier
}

// NewBookService 创建书籍服务实例
// notifier 可以为nil
func NewBookService(d *Deps, provider catalog.Provider, pricing catalog.PricingPolicy, entitlement *EntitlementService, notifier Notifier) *BookService {
	return &BookService{
		Deps:        d,
		provider:    provider,
		pricing:     pricing,
		entitlement: entitlement,
		notifier:    notifier,
	}
}

// BookDetail 书籍详情与权限
type BookDetail struct {
	Book *models.Book `json:"book"`
	Access
}

// ==================== 导入 ====================

// Ingest 从外部书目源导入书籍
// 以 google_id 为唯一键 upsert，已存在书籍只更新描述性字段，价格保持不变
func (bs *BookService) Ingest(ctx context.Context, query string, maxResults int) ([]models.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newValidationError(map[string]string{"q": "The q field is required."})
	}

	// 1. 查询外部书目源
	volumes, err := bs.provider.Search(ctx, query, catalog.ClampMaxResults(maxResults))
	if err != nil {
		bs.Logger.Error("catalog provider failed", zap.String("query", query), zap.Error(err))
		return nil, errors.WithType(errors.Annotate(err, "ingest books"), ErrCatalogUnavailable)
	}
	if len(volumes) == 0 {
		return []models.Book{}, nil
	}

	googleIDs := make([]string, 0, len(volumes))
	rows := make([]models.Book, 0, len(volumes))
	seen := make(map[string]struct{}, len(volumes))
	for _, v := range volumes {
		if v.GoogleID == "" {
			continue
		}
		if _, ok := seen[v.GoogleID]; ok {
			continue
		}
		seen[v.GoogleID] = struct{}{}
		googleIDs = append(googleIDs, v.GoogleID)
		rows = append(rows, bookFromVolume(v, bs.pricing.PriceFor(v.Categories)))
	}
	if len(rows) == 0 {
		return []models.Book{}, nil
	}

	var books []models.Book
	existing := make(map[string]struct{})
	err = bs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. 记录已存在的书籍，用于区分新书
		var known []string
		if err := tx.Model(&models.Book{}).Where("google_id IN ?", googleIDs).Pluck("google_id", &known).Error; err != nil {
			return errors.Annotate(err, "load known books")
		}
		for _, id := range known {
			existing[id] = struct{}{}
		}

		// 3. upsert（price 不在更新列中）
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "google_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "authors", "description", "thumbnail", "categories",
				"published_date", "info_link", "page_count", "updated_at",
			}),
		}).Create(&rows).Error; err != nil {
			return errors.Annotate(err, "upsert books")
		}

		// 4. 重新读取
		return tx.Where("google_id IN ?", googleIDs).Order("id").Find(&books).Error
	})
	if err != nil {
		return nil, err
	}

	if err := bs.entitlement.decorateBooks(ctx, books); err != nil {
		return nil, err
	}

	// 5. 新书推送通知并记录事件
	created := 0
	for i := range books {
		if _, ok := existing[books[i].ExternalID()]; ok {
			continue
		}
		created++
		if bs.notifier != nil {
			bs.notifier.BookAdded(models.NewBookNotification(&books[i]))
		}
		bs.publishEvent(ctx, "book_ingested", map[string]interface{}{
			"book_id":   books[i].ID,
			"google_id": books[i].ExternalID(),
			"title":     books[i].Title,
		})
	}

	bs.Logger.Info("catalog ingested",
		zap.String("query", query),
		zap.Int("fetched", len(books)),
		zap.Int("created", created),
	)
	return books, nil
}

func bookFromVolume(v catalog.Volume, price decimal.Decimal) models.Book {
	googleID := v.GoogleID
	return models.Book{
		GoogleID:      &googleID,
		Title:         v.Title,
		Authors:       v.Authors,
		Description:   v.Description,
		Thumbnail:     v.Thumbnail,
		Categories:    v.Categories,
		PublishedDate: v.PublishedDate,
		InfoLink:      v.InfoLink,
		PageCount:     v.PageCount,
		Price:         price,
	}
}

// ==================== 查询 ====================

// Search 搜索书目（标题/作者/分类），返回带评分的书籍和总数
func (bs *BookService) Search(ctx context.Context, keyword string, limit int) ([]models.Book, int64, error) {
	limit = clampLimit(limit, DefaultShowLimit)

	query := bs.DB.WithContext(ctx).Model(&models.Book{})
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where("title LIKE ? OR authors LIKE ? OR categories LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Annotate(err, "count books")
	}

	var books []models.Book
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, errors.Annotate(err, "search books")
	}

	if err := bs.entitlement.decorateBooks(ctx, books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// GetBook 获取单本书籍
func (bs *BookService) GetBook(ctx context.Context, bookID uint) (*models.Book, error) {
	var book models.Book
	if err := bs.DB.WithContext(ctx).First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFound("Book not found")
		}
		return nil, errors.Annotate(err, "load book")
	}
	return &book, nil
}

// GetBookDetail 书籍详情，附带当前用户的预览权限
func (bs *BookService) GetBookDetail(ctx context.Context, bookID uint, userID *uint) (*BookDetail, error) {
	book, err := bs.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	access, err := bs.entitlement.Resolve(ctx, userID, book)
	if err != nil {
		return nil, err
	}
	book.Rating = access.Rating
	book.PreviewLink = access.PreviewLink

	return &BookDetail{Book: book, Access: *access}, nil
}

// AllBooks 全部书目（订阅选书用）
func (bs *BookService) AllBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := bs.DB.WithContext(ctx).Order("title ASC, id ASC").Find(&books).Error; err != nil {
		return nil, errors.Annotate(err, "list books")
	}
	if err := bs.entitlement.decorateBooks(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// Notifications 最新入库书籍通知
func (bs *BookService) Notifications(ctx context.Context, limit int) ([]models.Notification, error) {
	limit = clampLimit(limit, DefaultNotificationLimit)

	var books []models.Book
	if err := bs.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&books).Error; err != nil {
		return nil, errors.Annotate(err, "list latest books")
	}

	notifications := make([]models.Notification, len(books))
	for i := range books {
		notifications[i] = models.NewBookNotification(&books[i])
	}
	return notifications, nil
}

// ==================== 管理 ====================

// DeleteBook 删除书籍及其借阅/评分/心愿单记录
func (bs *BookService) DeleteBook(ctx context.Context, bookID uint) error {
	err := bs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Book{}, bookID)
		if result.Error != nil {
			return errors.Annotate(result.Error, "delete book")
		}
		if result.RowsAffected == 0 {
			return newNotFound("Book not found")
		}

		for _, model := range []interface{}{&models.Borrow{}, &models.Rating{}, &models.Wishlist{}} {
			if err := tx.Where("book_id = ?", bookID).Delete(model).Error; err != nil {
				return errors.Annotate(err, "delete book references")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	bs.publishEvent(ctx, "book_deleted", map[string]interface{}{"book_id": bookID})
	return nil
}

// SetPrice 管理员设置每日借阅价格
func (bs *BookService) SetPrice(ctx context.Context, bookID uint, price decimal.Decimal) (*models.Book, error) {
	if price.IsNegative() {
		return nil, newValidationError(map[string]string{"price": "The price field must be at least 0."})
	}

	book, err := bs.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if err := bs.DB.WithContext(ctx).Model(book).Update("price", price.Round(2)).Error; err != nil {
		return nil, errors.Annotate(err, "update price")
	}
	book.Price = price.Round(2)

	books := []models.Book{*book}
	if err := bs.entitlement.decorateBooks(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

// clampLimit 规范化列表数量
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
