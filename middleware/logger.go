package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLogStream 访问日志的Redis Stream
const AccessLogStream = "readova:access_logs"

var (
	logger           = zap.NewNop()
	accessLogChannel chan *AccessLog
	accessLogRedis   *redis.Client
)

// AccessLog 访问日志结构
type AccessLog struct {
	Time       time.Time `json:"time"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Query      string    `json:"query,omitempty"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent,omitempty"`
	StatusCode int       `json:"status_code"`
	Latency    int64     `json:"latency_ms"`
	UserID     string    `json:"user_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// InitLogger 初始化日志系统
// rdb 不为nil时访问日志同时写入Redis Stream
func InitLogger(mode string, rdb *redis.Client) (*zap.Logger, error) {
	var zapConfig zap.Config

	if mode == "debug" || mode == "" {
		// 开发环境 - 控制台输出
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		// 生产环境 - JSON格式
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	built, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	logger = built
	zap.ReplaceGlobals(built)
	accessLogRedis = rdb

	// 启动日志处理worker池
	accessLogChannel = make(chan *AccessLog, 1000)
	startLogWorkers(3)

	return logger, nil
}

// startLogWorkers 启动日志处理worker
func startLogWorkers(workerCount int) {
	ch := accessLogChannel
	for i := 0; i < workerCount; i++ {
		go func() {
			for accessLog := range ch {
				accessLog.process()
			}
		}()
	}
}

// process 处理单条访问日志
func (al *AccessLog) process() {
	logger.Info("access_log",
		zap.String("method", al.Method),
		zap.String("path", al.Path),
		zap.String("query", al.Query),
		zap.String("ip", al.IP),
		zap.String("user_agent", al.UserAgent),
		zap.Int("status_code", al.StatusCode),
		zap.Int64("latency_ms", al.Latency),
		zap.String("user_id", al.UserID),
		zap.String("request_id", al.RequestID),
		zap.String("error", al.Error),
	)

	if accessLogRedis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	logData, _ := json.Marshal(al)
	err := accessLogRedis.XAdd(ctx, &redis.XAddArgs{
		Stream: AccessLogStream,
		MaxLen: 100000,
		Approx: true,
		Values: map[string]interface{}{
			"timestamp":   al.Time.Unix(),
			"method":      al.Method,
			"path":        al.Path,
			"status_code": al.StatusCode,
			"latency_ms":  al.Latency,
			"ip":          al.IP,
			"user_id":     al.UserID,
			"full_data":   string(logData),
		},
	}).Err()
	if err != nil {
		logger.Debug("failed to write access log to redis", zap.Error(err))
	}
}

// Logger 返回日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 生成请求ID
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		accessLog := &AccessLog{
			Time:       start,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Query:      c.Request.URL.RawQuery,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: c.Writer.Status(),
			Latency:    time.Since(start).Milliseconds(),
			RequestID:  requestID,
		}
		if userID, ok := CurrentUserID(c); ok {
			accessLog.UserID = fmt.Sprint(userID)
		}
		if len(c.Errors) > 0 {
			accessLog.Error = c.Errors.String()
		}

		// 将日志放入队列（异步处理），队列满时丢弃
		select {
		case accessLogChannel <- accessLog:
		default:
		}
	}
}

// FlushLogger 刷新日志缓冲区
func FlushLogger() {
	_ = logger.Sync()
}
