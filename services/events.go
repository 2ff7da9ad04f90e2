package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventStream 业务事件流
const EventStream = "readova:events"

const eventStreamMaxLen = 100000

// publishEvent 写入业务事件（Redis Stream），失败只记录日志
func (d *Deps) publishEvent(ctx context.Context, event string, values map[string]interface{}) {
	if d.Redis == nil {
		return
	}

	fields := make(map[string]interface{}, len(values)+2)
	for k, v := range values {
		fields[k] = v
	}
	fields["event"] = event
	fields["timestamp"] = d.Clock.Now().Unix()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := d.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: EventStream,
		MaxLen: eventStreamMaxLen,
		Approx: true,
		Values: fields,
	}).Err()
	if err != nil {
		d.Logger.Warn("failed to publish event", zap.String("event", event), zap.Error(err))
	}
}
