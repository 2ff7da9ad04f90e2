package services

import (
	"time"

	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Deps 服务共享依赖
// Redis 可以为nil，所有Redis操作都是尽力而为
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Clock  clock.Clock
	Logger *zap.Logger
}

// now 当前时间（UTC，截断到秒）
func (d *Deps) now() time.Time {
	return d.Clock.Now().UTC().Truncate(time.Second)
}

// lockForUpdate 在MySQL上对查询行加写锁
// SQLite 写事务本身是串行的，不支持 FOR UPDATE
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
