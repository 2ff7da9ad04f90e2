package services

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readova/models"
	"readova/utils"
)

// RatingService 评分服务
type RatingService struct {
	*Deps
	entitlement *EntitlementService
}

// NewRatingService 创建评分服务实例
func NewRatingService(d *Deps, entitlement *EntitlementService) *RatingService {
	return &RatingService{Deps: d, entitlement: entitlement}
}

// RateRequest 评分请求
type RateRequest struct {
	UserID uint `json:"user_id"`
	BookID uint `json:"book_id" binding:"required"`
	Rating int  `json:"rating" binding:"required,min=1,max=5"`
}

// UnmarshalJSON id 字段同时接受数字与数字字符串
func (r *RateRequest) UnmarshalJSON(data []byte) error {
	type alias RateRequest
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

// Rate 写入评分（同一用户同一本书只保留最后一次），返回新的平均分
func (s *RatingService) Rate(ctx context.Context, req *RateRequest) (*models.Rating, float64, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, 0, newValidationError(map[string]string{"rating": "The rating field must be between 1 and 5."})
	}

	var rating models.Rating
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserAndBook(tx, req.UserID, req.BookID); err != nil {
			return err
		}

		row := models.Rating{UserID: req.UserID, BookID: req.BookID, Rating: req.Rating}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return errors.Annotate(err, "upsert rating")
		}

		return tx.Where("user_id = ? AND book_id = ?", req.UserID, req.BookID).First(&rating).Error
	})
	if err != nil {
		return nil, 0, err
	}

	average, err := s.entitlement.AverageRating(ctx, req.BookID)
	if err != nil {
		return nil, 0, err
	}
	return &rating, average, nil
}

// ensureUserAndBook 校验用户与书籍存在
func ensureUserAndBook(tx *gorm.DB, userID, bookID uint) error {
	fields := make(map[string]string)

	var users int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
		return errors.Annotate(err, "check user")
	}
	if users == 0 {
		fields["user_id"] = "The selected user id is invalid."
	}

	var books int64
	if err := tx.Model(&models.Book{}).Where("id = ?", bookID).Count(&books).Error; err != nil {
		return errors.Annotate(err, "check book")
	}
	if books == 0 {
		fields["book_id"] = "The selected book id is invalid."
	}

	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}
