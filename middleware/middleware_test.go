package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readova/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type revokedTokens map[string]bool

func (r revokedTokens) IsRevoked(_ context.Context, tokenID string) bool {
	return r[tokenID]
}

func newTestJWT() (*config.JWTService, *testclock.Clock) {
	clk := testclock.NewClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	return config.NewJWTService(config.JWTConfig{
		SecretKey:      "test-secret",
		ExpirationTime: time.Hour,
		Issuer:         "readova",
	}, clk), clk
}

func newAuthRouter(auth *Authenticator) *gin.Engine {
	r := gin.New()
	whoami := func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok})
	}
	r.GET("/optional", auth.OptionalAuth(), whoami)
	r.GET("/required", auth.RequireAuth(), whoami)
	r.GET("/admin", auth.AdminOnly(), whoami)
	return r
}

func doRequest(r http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestOptionalAuth(t *testing.T) {
	jwtService, _ := newTestJWT()
	r := newAuthRouter(NewAuthenticator(jwtService, nil))

	w, body := doRequest(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["authenticated"])

	// 非法token按匿名处理
	w, body = doRequest(r, "/optional", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["authenticated"])

	token, _, err := jwtService.GenerateToken(7, "reader@example.com", false)
	require.NoError(t, err)
	w, body = doRequest(r, "/optional", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["authenticated"])
	assert.EqualValues(t, 7, body["user_id"])
}

func TestRequireAuth(t *testing.T) {
	jwtService, clk := newTestJWT()
	revoked := revokedTokens{}
	r := newAuthRouter(NewAuthenticator(jwtService, revoked))

	w, body := doRequest(r, "/required", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.EqualValues(t, 40100, body["code"])

	token, claims, err := jwtService.GenerateToken(3, "reader@example.com", false)
	require.NoError(t, err)

	w, _ = doRequest(r, "/required", token)
	assert.Equal(t, http.StatusOK, w.Code)

	revoked[claims.ID] = true
	w, _ = doRequest(r, "/required", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	delete(revoked, claims.ID)
	clk.Advance(2 * time.Hour)
	w, _ = doRequest(r, "/required", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnly(t *testing.T) {
	jwtService, _ := newTestJWT()
	r := newAuthRouter(NewAuthenticator(jwtService, nil))

	reader, _, err := jwtService.GenerateToken(3, "reader@example.com", false)
	require.NoError(t, err)
	admin, _, err := jwtService.GenerateToken(1, "admin@example.com", true)
	require.NoError(t, err)

	w, _ := doRequest(r, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := doRequest(r, "/admin", reader)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 40300, body["code"])

	w, _ = doRequest(r, "/admin", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.GET("/ingest", RateLimit(rdb, "ingest", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w, _ := doRequest(r, "/ingest", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, body := doRequest(r, "/ingest", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.EqualValues(t, 42900, body["code"])

	mr.FastForward(time.Minute + time.Second)
	w, _ = doRequest(r, "/ingest", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggerSetsRequestID(t *testing.T) {
	_, err := InitLogger("test", nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Logger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w, _ := doRequest(r, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(NewCORSConfig([]string{"http://localhost:5173"})))
	r.GET("/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
