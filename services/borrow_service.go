package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"readova/models"
	"readova/utils"
)

// 借阅天数范围
const (
	MinBorrowDays = 1
	MaxBorrowDays = 30
)

// ActiveBorrowMessage 已有未到期借阅时的提示
const ActiveBorrowMessage = "You already have Borrowed a Book. Please wait until it expires."

// BorrowService 借阅服务
type BorrowService struct {
	*Deps
}

// NewBorrowService 创建借阅服务实例
func NewBorrowService(d *Deps) *BorrowService {
	return &BorrowService{Deps: d}
}

// BorrowRequest 借阅请求
type BorrowRequest struct {
	UserID uint `json:"user_id"`
	BookID uint `json:"book_id" binding:"required"`
	Days   int  `json:"days" binding:"required"`
}

// UnmarshalJSON id 字段同时接受数字与数字字符串
func (r *BorrowRequest) UnmarshalJSON(data []byte) error {
	type alias BorrowRequest
	aux := struct {
		*alias
		UserID utils.FlexibleID `json:"user_id"`
		BookID utils.FlexibleID `json:"book_id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.UserID = aux.UserID.Uint()
	r.BookID = aux.BookID.Uint()
	return nil
}

// Borrow 创建借阅
// 同一用户同时只能有一条未到期借阅，检查与写入在同一事务中完成
func (s *BorrowService) Borrow(ctx context.Context, req *BorrowRequest) (*models.Borrow, error) {
	// 1. 校验天数
	if req.Days < MinBorrowDays || req.Days > MaxBorrowDays {
		return nil, newValidationError(map[string]string{
			"days": fmt.Sprintf("The days field must be between %d and %d.", MinBorrowDays, MaxBorrowDays),
		})
	}

	now := s.now()
	var borrow models.Borrow

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. 锁定用户，串行化同一用户的并发借阅
		var user models.User
		if err := lockForUpdate(tx).First(&user, req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newValidationError(map[string]string{"user_id": "The selected user id is invalid."})
			}
			return errors.Annotate(err, "load user")
		}

		// 3. 校验书籍
		var book models.Book
		if err := tx.First(&book, req.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newValidationError(map[string]string{"book_id": "The selected book id is invalid."})
			}
			return errors.Annotate(err, "load book")
		}

		// 4. 检查未到期借阅
		var active int64
		if err := tx.Model(&models.Borrow{}).
			Scopes(models.BorrowUnexpiredAt(now)).
			Where("user_id = ?", user.ID).
			Count(&active).Error; err != nil {
			return errors.Annotate(err, "count active borrows")
		}
		if active > 0 {
			return newForbidden(ActiveBorrowMessage)
		}

		// 5. 写入借阅记录
		borrow = models.Borrow{
			UserID:     user.ID,
			BookID:     book.ID,
			Days:       req.Days,
			Price:      book.Price.Mul(decimal.NewFromInt(int64(req.Days))),
			BorrowedAt: now,
			ExpiresAt:  now.Add(time.Duration(req.Days) * 24 * time.Hour),
		}
		if err := tx.Create(&borrow).Error; err != nil {
			return errors.Annotate(err, "create borrow")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("book borrowed",
		zap.Uint("user_id", borrow.UserID),
		zap.Uint("book_id", borrow.BookID),
		zap.Int("days", borrow.Days),
	)

	// 6. 记录借阅事件
	s.publishEvent(ctx, "borrow_created", map[string]interface{}{
		"borrow_id": borrow.ID,
		"user_id":   borrow.UserID,
		"book_id":   borrow.BookID,
		"price":     borrow.Price.String(),
	})

	return &borrow, nil
}
