package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AllowRequest 固定窗口限流（INCR与EXPIRE NX在同一事务中执行）
// 每次请求都补设过期时间（已有过期时间时不变），计数键不会永久残留
// Redis不可用时不限流
func AllowRequest(ctx context.Context, rdb *redis.Client, scope, subject string, limit int, window time.Duration) bool {
	if rdb == nil || limit <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:%s:%s", scope, subject)

	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true
	}

	return incr.Val() <= int64(limit)
}
