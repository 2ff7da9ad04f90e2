package services

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"readova/models"
	"readova/utils"
)

// WishlistService 心愿单服务
type WishlistService struct {
	*Deps
	entitlement *EntitlementService
}

// NewWishlistService 创建心愿单服务实例
func NewWishlistService(d *Deps, entitlement *EntitlementService) *WishlistService {
	return &WishlistService{Deps: d, entitlement: entitlement}
}

// WishlistRequest 心愿单切换请求
type WishlistRequest struct {
	UserID uint `json:"user_id"`
	BookID uint `json:"book_id" binding:"required"`
}

// UnmarshalJSON id 字段同时接受数字与数字字符串
func (r *WishlistRequest) UnmarshalJSON(data []byte) error {
	type alias WishlistRequest
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

// Toggle 切换收藏状态，返回切换后的状态
func (s *WishlistService) Toggle(ctx context.Context, req *WishlistRequest) (bool, error) {
	var inWishlist bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserAndBook(tx, req.UserID, req.BookID); err != nil {
			return err
		}

		result := tx.Where("user_id = ? AND book_id = ?", req.UserID, req.BookID).Delete(&models.Wishlist{})
		if result.Error != nil {
			return errors.Annotate(result.Error, "remove wishlist entry")
		}
		if result.RowsAffected > 0 {
			inWishlist = false
			return nil
		}

		if err := tx.Create(&models.Wishlist{UserID: req.UserID, BookID: req.BookID}).Error; err != nil {
			return errors.Annotate(err, "add wishlist entry")
		}
		inWishlist = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inWishlist, nil
}

// List 用户心愿单书籍（最近收藏在前）
func (s *WishlistService) List(ctx context.Context, userID uint) ([]models.Book, error) {
	var entries []models.Wishlist
	if err := s.DB.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, errors.Annotate(err, "list wishlist")
	}

	books := make([]models.Book, 0, len(entries))
	for _, entry := range entries {
		if entry.Book != nil {
			books = append(books, *entry.Book)
		}
	}
	if err := s.entitlement.decorateBooks(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// Contains 书籍是否在用户心愿单中
func (s *WishlistService) Contains(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Wishlist{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error; err != nil {
		return false, errors.Annotate(err, "check wishlist")
	}
	return count > 0, nil
}
