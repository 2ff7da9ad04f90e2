package services

import (
	"context"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const refreshQueryTimeout = 30 * time.Second

// CatalogRefresher 定时重新导入书目
type CatalogRefresher struct {
	books      *BookService
	queries    []string
	maxResults int
	logger     *zap.Logger
	cron       *cron.Cron
}

// NewCatalogRefresher 创建定时导入任务
// schedule 为标准5段cron表达式，或 @every 1h 这类描述符
func NewCatalogRefresher(books *BookService, schedule string, queries []string, maxResults int, logger *zap.Logger) (*CatalogRefresher, error) {
	r := &CatalogRefresher{
		books:      books,
		maxResults: maxResults,
		logger:     logger,
		cron:       cron.New(),
	}
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			r.queries = append(r.queries, q)
		}
	}
	if len(r.queries) == 0 {
		return nil, errors.NotValidf("catalog refresh queries")
	}

	if _, err := r.cron.AddFunc(schedule, r.RunOnce); err != nil {
		return nil, errors.Annotatef(err, "invalid catalog refresh schedule %q", schedule)
	}
	return r, nil
}

// RunOnce 依次导入所有查询，单个失败不影响其他查询
func (r *CatalogRefresher) RunOnce() {
	for _, q := range r.queries {
		ctx, cancel := context.WithTimeout(context.Background(), refreshQueryTimeout)
		books, err := r.books.Ingest(ctx, q, r.maxResults)
		cancel()
		if err != nil {
			r.logger.Error("catalog refresh failed", zap.String("query", q), zap.Error(err))
			continue
		}
		r.logger.Info("catalog refreshed", zap.String("query", q), zap.Int("books", len(books)))
	}
}

// Start 启动定时任务
func (r *CatalogRefresher) Start() {
	r.cron.Start()
	r.logger.Info("catalog refresh scheduled", zap.Strings("queries", r.queries))
}

// Stop 停止定时任务并等待正在执行的任务结束
func (r *CatalogRefresher) Stop() {
	<-r.cron.Stop().Done()
}
