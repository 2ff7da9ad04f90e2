package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"readova/config"
	"readova/models"
)

// 认证相关提示
const (
	InvalidCredentialsMessage = "Invalid credentials"
	TooManyAttemptsMessage    = "Too many login attempts. Please try again later."
	UserNotFoundMessage       = "User not found"
)

// AuthService 认证服务
type AuthService struct {
	*Deps
	jwtService *config.JWTService
	authConfig config.AuthConfig
}

// NewAuthService 创建认证服务实例
func NewAuthService(d *Deps, jwtService *config.JWTService, authConfig config.AuthConfig) *AuthService {
	return &AuthService{
		Deps:       d,
		jwtService: jwtService,
		authConfig: authConfig,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ==================== 注册 ====================

// Register 用户注册
func (as *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)

	// 1. 检查邮箱是否已存在
	var count int64
	if err := as.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, errors.Annotate(err, "check email")
	}
	if count > 0 {
		return nil, newValidationError(map[string]string{"email": "The email has already been taken."})
	}

	// 2. 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. 创建用户
	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  false,
	}
	if err := as.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError(map[string]string{"email": "The email has already been taken."})
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 4. 记录注册事件
	as.publishEvent(ctx, "user_registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	return &user, nil
}

// ==================== 登录 ====================

// Login 用户登录，成功返回用户与JWT
// 同一邮箱+IP失败次数达到上限后在封禁时长内拒绝登录
func (as *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP string) (*models.User, string, error) {
	email := normalizeEmail(req.Email)
	limitKey := fmt.Sprintf("login:limit:%s:%s", email, clientIP)

	// 1. 检查登录失败次数
	if as.Redis != nil {
		attempts, err := as.Redis.Get(ctx, limitKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			as.Logger.Warn("failed to read login attempts", zap.Error(err))
		}
		if as.authConfig.MaxLoginAttempts > 0 && attempts >= int64(as.authConfig.MaxLoginAttempts) {
			return nil, "", newTooManyRequests(TooManyAttemptsMessage)
		}
	}

	// 2. 查找用户并验证密码
	var user models.User
	if err := as.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errors.Annotate(err, "load user")
		}
		as.recordLoginFailure(ctx, limitKey)
		return nil, "", newUnauthorized(InvalidCredentialsMessage)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		as.recordLoginFailure(ctx, limitKey)
		return nil, "", newUnauthorized(InvalidCredentialsMessage)
	}

	// 3. 生成JWT token
	token, _, err := as.jwtService.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	// 4. 清除登录失败记录
	if as.Redis != nil {
		as.Redis.Del(ctx, limitKey)
	}

	as.publishEvent(ctx, "user_logged_in", map[string]interface{}{
		"user_id": user.ID,
		"ip":      clientIP,
	})

	return &user, token, nil
}

// recordLoginFailure 记录登录失败（Redis计数，窗口为封禁时长）
func (as *AuthService) recordLoginFailure(ctx context.Context, limitKey string) {
	if as.Redis == nil {
		return
	}
	pipe := as.Redis.TxPipeline()
	pipe.Incr(ctx, limitKey)
	pipe.Expire(ctx, limitKey, as.authConfig.LoginBlockDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		as.Logger.Warn("failed to record login failure", zap.Error(err))
	}
}

// ==================== 登出 / token黑名单 ====================

// Logout 将token加入黑名单直到其过期
func (as *AuthService) Logout(ctx context.Context, claims *config.Claims) error {
	if as.Redis == nil || claims == nil || claims.ID == "" {
		return nil
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(as.Clock.Now())
	}
	if ttl <= 0 {
		return nil
	}

	if err := as.Redis.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		return errors.Annotate(err, "blacklist token")
	}
	return nil
}

// IsRevoked token是否已登出
// Redis不可用时视为未登出
func (as *AuthService) IsRevoked(ctx context.Context, tokenID string) bool {
	if as.Redis == nil || tokenID == "" {
		return false
	}
	n, err := as.Redis.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		as.Logger.Warn("failed to check token blacklist", zap.Error(err))
		return false
	}
	return n > 0
}

func blacklistKey(tokenID string) string {
	return "jwt:blacklist:" + tokenID
}

// ==================== 用户管理 ====================

// GetUserByEmail 按邮箱查找用户
func (as *AuthService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := as.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFound(UserNotFoundMessage)
		}
		return nil, errors.Annotate(err, "load user")
	}
	return &user, nil
}

// ListUsers 全部用户
func (as *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := as.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, errors.Annotate(err, "list users")
	}
	return users, nil
}

// DeleteUser 删除用户及其借阅、订阅、评分、心愿单
// 只能删除自己，管理员可以删除任何人
func (as *AuthService) DeleteUser(ctx context.Context, actor *config.Claims, email string) error {
	user, err := as.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if actor == nil || (!actor.IsAdmin && actor.UserID != user.ID) {
		return newForbidden("You are not allowed to delete this user")
	}

	err = as.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Borrow{}, &models.Subscription{}, &models.Rating{}, &models.Wishlist{}} {
			if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return errors.Annotate(err, "delete user references")
			}
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return err
	}

	as.Logger.Info("user deleted", zap.Uint("user_id", user.ID), zap.Uint("actor_id", actor.UserID))
	as.publishEvent(ctx, "user_deleted", map[string]interface{}{
		"user_id":  user.ID,
		"actor_id": actor.UserID,
	})
	return nil
}

// EnsureAdmin 不存在时创建初始管理员
func (as *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	email := normalizeEmail(cfg.Email)
	var user models.User
	err := as.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if !user.IsAdmin {
			return as.DB.WithContext(ctx).Model(&user).Update("is_admin", true).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Annotate(err, "load admin")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user = models.User{
		Name:     cfg.Name,
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  true,
	}
	if err := as.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	as.Logger.Info("admin account created", zap.String("email", email))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
