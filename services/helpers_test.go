package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readova/catalog"
	"readova/config"
	"readova/models"
)

var testEpoch = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T) (*Deps, *testclock.Clock) {
	t.Helper()

	clk := testclock.NewClock(testEpoch)
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, false, clk)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	return &Deps{DB: db, Clock: clk, Logger: zap.NewNop()}, clk
}

func withRedis(t *testing.T, d *Deps) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	d.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = d.Redis.Close() })
	return mr
}

func createUser(t *testing.T, d *Deps, email string, isAdmin bool) *models.User {
	t.Helper()

	user := &models.User{Name: "Reader", Email: email, Password: "x", IsAdmin: isAdmin}
	require.NoError(t, d.DB.Create(user).Error)
	return user
}

func createBook(t *testing.T, d *Deps, googleID, title, price string) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:      title,
		Authors:    "Author of " + title,
		Categories: "General",
		Price:      decimal.RequireFromString(price),
	}
	if googleID != "" {
		book.GoogleID = &googleID
	}
	require.NoError(t, d.DB.Create(book).Error)
	return book
}

func uintPtr(v uint) *uint {
	return &v
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fakeProvider struct {
	volumes []catalog.Volume
	err     error
	queries []string
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]catalog.Volume, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.volumes, nil
}

type fakeNotifier struct {
	got []models.Notification
}

func (f *fakeNotifier) BookAdded(n models.Notification) {
	f.got = append(f.got, n)
}
