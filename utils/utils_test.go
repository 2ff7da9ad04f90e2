package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sampleRequest struct {
	UserID   uint   `json:"user_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	PlanType string `json:"plan_type" binding:"required,oneof=basic premium"`
	Days     int    `json:"days" binding:"min=1,max=30"`
}

func bind(t *testing.T, body string) map[string]string {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req sampleRequest
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)
	return FormatBindingError(err)
}

func TestFormatBindingErrorUsesJSONNames(t *testing.T) {
	errs := bind(t, `{"email":"nope","plan_type":"gold","days":40}`)

	assert.Equal(t, "The user id field is required.", errs["user_id"])
	assert.Equal(t, "The email field must be a valid email address.", errs["email"])
	assert.Equal(t, "The selected plan type is invalid.", errs["plan_type"])
	assert.Equal(t, "The days field must not be greater than 30.", errs["days"])
}

func TestFormatBindingErrorTypeMismatch(t *testing.T) {
	errs := bind(t, `{"user_id":"abc"}`)
	assert.Contains(t, errs, "user_id")

	errs = bind(t, `{not json`)
	assert.Contains(t, errs, "body")
}

func TestJSONFlattensPayload(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, "", gin.H{"preview_access": true, "code": "ignored"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(CodeSuccess), body["code"])
	assert.Equal(t, "OK", body["message"])
	assert.Equal(t, true, body["preview_access"])
}

func TestValidationErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ValidationError(c, "Invalid input", map[string]string{"price": "The price field is required."})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid input", body["message"])
	assert.Equal(t, map[string]interface{}{"price": "The price field is required."}, body["errors"])
}

func TestAllowRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	assert.True(t, AllowRequest(ctx, rdb, "ingest", "1.2.3.4", 2, time.Minute))
	assert.True(t, AllowRequest(ctx, rdb, "ingest", "1.2.3.4", 2, time.Minute))
	assert.False(t, AllowRequest(ctx, rdb, "ingest", "1.2.3.4", 2, time.Minute))
	assert.True(t, AllowRequest(ctx, rdb, "ingest", "5.6.7.8", 2, time.Minute))

	mr.FastForward(time.Minute)
	assert.True(t, AllowRequest(ctx, rdb, "ingest", "1.2.3.4", 2, time.Minute))

	assert.True(t, AllowRequest(ctx, nil, "ingest", "1.2.3.4", 1, time.Minute))
}

func TestAllowRequestRepairsMissingExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	// 计数键没有过期时间（例如之前设置过期失败）
	key := "ratelimit:ingest:9.9.9.9"
	require.NoError(t, mr.Set(key, "5"))

	ctx := context.Background()
	assert.False(t, AllowRequest(ctx, rdb, "ingest", "9.9.9.9", 2, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute)
	assert.True(t, AllowRequest(ctx, rdb, "ingest", "9.9.9.9", 2, time.Minute))
}

func TestFlexibleIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FlexibleID
		wantErr bool
	}{
		{"number", `7`, 7, false},
		{"numeric string", `"12"`, 12, false},
		{"padded string", `" 3 "`, 3, false},
		{"json null", `null`, 0, false},
		{"empty string", `""`, 0, false},
		{"null string", `"null"`, 0, false},
		{"undefined string", `"undefined"`, 0, false},
		{"word", `"abc"`, 0, true},
		{"negative", `-1`, 0, true},
		{"fraction", `1.5`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id FlexibleID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFlexibleIDTypeErrorNamesField(t *testing.T) {
	var req struct {
		UserID FlexibleID `json:"user_id"`
	}
	err := json.Unmarshal([]byte(`{"user_id":"abc"}`), &req)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"user_id": "The user id field has an invalid type."}, FormatBindingError(err))
}
