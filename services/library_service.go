package services

import (
	"context"
	"time"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"readova/models"
)

// LibraryService 我的书架
type LibraryService struct {
	*Deps
	entitlement *EntitlementService
}

// NewLibraryService 创建书架服务实例
func NewLibraryService(d *Deps, entitlement *EntitlementService) *LibraryService {
	return &LibraryService{Deps: d, entitlement: entitlement}
}

// BorrowedBook 借阅中的书籍
type BorrowedBook struct {
	models.Book
	BorrowID   uint      `json:"borrow_id"`
	BorrowedAt time.Time `json:"borrowed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Library 用户书架
type Library struct {
	BorrowedBooks         []BorrowedBook `json:"borrowed_books"`
	SubscribedBooks       []models.Book  `json:"subscribed_books"`
	PlanType              *string        `json:"plan_type"`
	SubscriptionExpiresAt *time.Time     `json:"subscription_expires_at"`
}

// MyBooks 当前借阅中的书籍与 basic 订阅所选书籍
func (s *LibraryService) MyBooks(ctx context.Context, userID uint) (*Library, error) {
	now := s.now()
	db := s.DB.WithContext(ctx)
	library := &Library{
		BorrowedBooks:   []BorrowedBook{},
		SubscribedBooks: []models.Book{},
	}

	// 1. 借阅窗口内的书籍
	var borrows []models.Borrow
	if err := db.Preload("Book").
		Scopes(models.BorrowActiveAt(now)).
		Where("user_id = ?", userID).
		Order("expires_at ASC").
		Find(&borrows).Error; err != nil {
		return nil, errors.Annotate(err, "list active borrows")
	}

	borrowedBooks := make([]models.Book, 0, len(borrows))
	for _, b := range borrows {
		if b.Book != nil {
			borrowedBooks = append(borrowedBooks, *b.Book)
		}
	}
	if err := s.entitlement.decorateBooks(ctx, borrowedBooks); err != nil {
		return nil, err
	}
	i := 0
	for _, b := range borrows {
		if b.Book == nil {
			continue
		}
		library.BorrowedBooks = append(library.BorrowedBooks, BorrowedBook{
			Book:       borrowedBooks[i],
			BorrowID:   b.ID,
			BorrowedAt: b.BorrowedAt,
			ExpiresAt:  b.ExpiresAt,
		})
		i++
	}

	// 2. 有效订阅
	var sub models.Subscription
	err := db.Scopes(models.SubscriptionActiveAt(now)).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return library, nil
	}
	if err != nil {
		return nil, errors.Annotate(err, "load subscription")
	}

	library.PlanType = &sub.PlanType
	library.SubscriptionExpiresAt = &sub.ExpiryDate

	if sub.PlanType != models.PlanBasic || len(sub.SelectedBooks) == 0 {
		return library, nil
	}

	var books []models.Book
	if err := db.Where("id IN ?", []uint(sub.SelectedBooks)).Find(&books).Error; err != nil {
		return nil, errors.Annotate(err, "load subscribed books")
	}

	// 按选书顺序输出
	byID := make(map[uint]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	for _, id := range sub.SelectedBooks {
		if b, ok := byID[id]; ok {
			library.SubscribedBooks = append(library.SubscribedBooks, b)
		}
	}
	if err := s.entitlement.decorateBooks(ctx, library.SubscribedBooks); err != nil {
		return nil, err
	}
	return library, nil
}
