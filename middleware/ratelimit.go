package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"readova/utils"
)

// RateLimit 按客户端IP限流
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.AllowRequest(c.Request.Context(), rdb, scope, c.ClientIP(), limit, window) {
			utils.TooManyRequests(c, "Too many requests. Please slow down.")
			c.Abort()
			return
		}
		c.Next()
	}
}
