package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"readova/config"
	"readova/utils"
)

// 上下文键
const (
	ctxUserID  = "user_id"
	ctxClaims  = "claims"
	ctxIsAdmin = "is_admin"
)

// TokenChecker 查询token是否已登出
type TokenChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// Authenticator JWT认证中间件集合
type Authenticator struct {
	jwt    *config.JWTService
	tokens TokenChecker
}

// NewAuthenticator 创建认证中间件
func NewAuthenticator(jwt *config.JWTService, tokens TokenChecker) *Authenticator {
	return &Authenticator{jwt: jwt, tokens: tokens}
}

// authenticate 解析 Authorization: Bearer <token>
func (a *Authenticator) authenticate(c *gin.Context) (*config.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, false
	}

	claims, err := a.jwt.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	if a.tokens != nil && a.tokens.IsRevoked(c.Request.Context(), claims.ID) {
		return nil, false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxIsAdmin, claims.IsAdmin)
	c.Set(ctxClaims, claims)
	return claims, true
}

// OptionalAuth 有合法token时写入用户信息，否则按匿名继续
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

// RequireAuth 必须登录
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			utils.Unauthorized(c, "Unauthenticated")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly 必须是管理员
func (a *Authenticator) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.authenticate(c)
		if !ok {
			utils.Unauthorized(c, "Unauthenticated")
			c.Abort()
			return
		}
		if !claims.IsAdmin {
			utils.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID 当前登录用户ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentClaims 当前token声明
func CurrentClaims(c *gin.Context) *config.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*config.Claims)
	return claims
}
