package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readova/catalog"
	"readova/config"
	"readova/models"
	"readova/services"
	"readova/websocket"
)

type stubProvider struct {
	volumes []catalog.Volume
}

func (p *stubProvider) Search(_ context.Context, _ string, _ int) ([]catalog.Volume, error) {
	return p.volumes, nil
}

type testServer struct {
	router *gin.Engine
	clock  *testclock.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := testclock.NewClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, false, clk)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	provider := &stubProvider{volumes: []catalog.Volume{
		{GoogleID: "dune-1", Title: "Dune", Authors: "Frank Herbert", Categories: "Fiction"},
		{GoogleID: "emma-1", Title: "Emma", Authors: "Jane Austen", Categories: "Classics"},
	}}

	jwtService := config.NewJWTService(config.JWTConfig{
		SecretKey:      "test-secret",
		ExpirationTime: time.Hour,
		Issuer:         "readova",
	}, clk)
	deps := &services.Deps{DB: db, Clock: clk, Logger: zap.NewNop()}
	hub := websocket.NewHub(nil, zap.NewNop())
	svcs := services.NewServices(deps, jwtService, config.AuthConfig{MaxLoginAttempts: 5, LoginBlockDuration: time.Minute},
		provider, catalog.NewPricingPolicy(2, nil), hub)

	require.NoError(t, svcs.Auth.EnsureAdmin(context.Background(), config.AdminConfig{
		Name:     "Admin",
		Email:    "admin@readova.test",
		Password: "admin-secret",
	}))

	r := config.SetupRouter(gin.TestMode, db, nil)
	SetupRoutes(r, svcs, hub, jwtService, nil, Options{AllowOrigins: []string{"*"}, IngestRateLimit: 10})
	return &testServer{router: r, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) ingest(t *testing.T, adminToken string) []uint {
	t.Helper()

	status, body := s.do(t, http.MethodGet, "/books?q=classics", adminToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	books := body["books"].([]interface{})
	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = uint(b.(map[string]interface{})["id"].(float64))
	}
	return ids
}

func TestRegisterLoginBorrowPreview(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/register", "", gin.H{
		"name": "Reader", "email": "reader@readova.test", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 20000, body["code"])
	assert.Equal(t, false, body["is_admin"])
	readerID := uint(body["user"].(map[string]interface{})["id"].(float64))

	reader := s.login(t, "reader@readova.test", "secret1")
	admin := s.login(t, "admin@readova.test", "admin-secret")
	ids := s.ingest(t, admin)
	require.Len(t, ids, 2)
	bookPath := fmt.Sprintf("/books/%d", ids[0])

	// 匿名用户没有预览权限，但能拿到预览链接
	status, body = s.do(t, http.MethodGet, bookPath, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["preview_access"])
	assert.Contains(t, body["preview_link"], "id=dune-1")

	status, body = s.do(t, http.MethodPost, "/borrow", reader, gin.H{"book_id": ids[0], "days": 3})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Book borrowed successfully", body["message"])

	status, body = s.do(t, http.MethodGet, bookPath, reader, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["preview_access"])

	// 无token时使用 user_id 查询参数
	status, body = s.do(t, http.MethodGet, fmt.Sprintf("%s?user_id=%d", bookPath, readerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["preview_access"])

	status, body = s.do(t, http.MethodGet, bookPath+"?user_id=undefined", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["preview_access"])

	// 同一时间只能借一本
	status, body = s.do(t, http.MethodPost, "/borrow", reader, gin.H{"book_id": ids[1], "days": 3})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, services.ActiveBorrowMessage, body["message"])

	status, body = s.do(t, http.MethodGet, "/library/my-books", reader, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["borrowed_books"], 1)

	// 到期后权限消失
	s.clock.Advance(3*24*time.Hour + time.Second)
	reader = s.login(t, "reader@readova.test", "secret1")
	status, body = s.do(t, http.MethodGet, bookPath, reader, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["preview_access"])
}

func TestValidationAndNotFound(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@readova.test", "admin-secret")
	ids := s.ingest(t, admin)

	status, body := s.do(t, http.MethodGet, "/books/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, 40400, body["code"])

	status, body = s.do(t, http.MethodPost, "/borrow", admin, gin.H{"book_id": ids[0], "days": 45})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "days")

	status, body = s.do(t, http.MethodPost, "/borrow", "", gin.H{"book_id": ids[0], "days": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "user_id")

	status, body = s.do(t, http.MethodPost, "/subscriptions/checkout", admin, gin.H{"plan_type": "gold"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Invalid input", body["message"])
	assert.Contains(t, body["errors"], "plan_type")
	assert.Contains(t, body["errors"], "price")

	status, _ = s.do(t, http.MethodPost, "/rate", admin, gin.H{"book_id": ids[0], "rating": 6})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = s.do(t, http.MethodGet, "/books", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/register", "", gin.H{
		"name": "Reader", "email": "reader@readova.test", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	reader := s.login(t, "reader@readova.test", "secret1")
	admin := s.login(t, "admin@readova.test", "admin-secret")

	for _, path := range []string{"/books?q=dune", "/allusers", "/admin/stats"} {
		status, _ = s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)

		status, _ = s.do(t, http.MethodGet, path, reader, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
	}

	ids := s.ingest(t, admin)
	status, body := s.do(t, http.MethodGet, "/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total_books"])
	assert.EqualValues(t, 2, body["total_users"])

	status, body = s.do(t, http.MethodPut, fmt.Sprintf("/books/%d/price", ids[0]), admin, gin.H{"price": 7.5})
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.do(t, http.MethodDelete, fmt.Sprintf("/deletebooks/%d", ids[0]), admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Book deleted successfully", body["message"])

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/deletebooks/%d", ids[0]), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWishlistToggleAndLogout(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@readova.test", "admin-secret")
	ids := s.ingest(t, admin)
	checkPath := fmt.Sprintf("/wishlist/check/%d", ids[1])

	status, body := s.do(t, http.MethodPost, "/wishlist/toggle", admin, gin.H{"book_id": ids[1]})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["in_wishlist"])

	_, body = s.do(t, http.MethodGet, checkPath, admin, nil)
	assert.Equal(t, true, body["in_wishlist"])

	_, body = s.do(t, http.MethodGet, "/wishlist", admin, nil)
	assert.Len(t, body["books"], 1)

	_, body = s.do(t, http.MethodPost, "/wishlist/toggle", admin, gin.H{"book_id": ids[1]})
	assert.Equal(t, false, body["in_wishlist"])

	// 没有Redis时登出不会使token失效，但接口正常返回
	status, _ = s.do(t, http.MethodPost, "/logout", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/notifications?limit=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["notifications"], 1)
}

func TestBodyIDsAsStringsWithoutToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/register", "", gin.H{
		"name": "Reader", "email": "reader@readova.test", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	userID := fmt.Sprintf("%d", uint(body["user"].(map[string]interface{})["id"].(float64)))

	admin := s.login(t, "admin@readova.test", "admin-secret")
	ids := s.ingest(t, admin)
	bookID := fmt.Sprintf("%d", ids[0])

	status, body = s.do(t, http.MethodPost, "/borrow", "", gin.H{"user_id": userID, "book_id": bookID, "days": 3})
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.do(t, http.MethodPost, "/rate", "", gin.H{"user_id": userID, "book_id": bookID, "rating": 4})
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.do(t, http.MethodPost, "/wishlist/toggle", "", gin.H{"user_id": userID, "book_id": bookID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["in_wishlist"])

	status, body = s.do(t, http.MethodPost, "/subscriptions/checkout", "", gin.H{"user_id": userID, "plan_type": "premium", "price": 9.99})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Subscription successful", body["message"])

	// 前端传来的空值按未提供处理
	for _, raw := range []interface{}{nil, "null", "undefined", ""} {
		status, body = s.do(t, http.MethodPost, "/borrow", "", gin.H{"user_id": raw, "book_id": bookID, "days": 3})
		assert.Equal(t, http.StatusUnprocessableEntity, status, raw)
		assert.Contains(t, body["errors"], "user_id", raw)
	}

	status, body = s.do(t, http.MethodPost, "/rate", "", gin.H{"user_id": "abc", "book_id": bookID, "rating": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "The user id field has an invalid type.", body["errors"].(map[string]interface{})["user_id"])
}
