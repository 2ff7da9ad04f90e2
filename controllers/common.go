package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"readova/middleware"
	"readova/services"
	"readova/utils"
)

// userIDRequired 缺少用户时的字段错误
var userIDRequired = map[string]string{"user_id": "The user id field is required."}

// bindJSON 绑定请求体，失败时直接返回422
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ValidationError(c, "Invalid input", utils.FormatBindingError(err))
		return false
	}
	return true
}

// parseUserID 解析前端传来的 user_id，"null"/"undefined"/非正整数视为匿名
func parseUserID(raw string) *uint {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "null", "undefined":
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	uid := uint(id)
	return &uid
}

// requestUserID 当前请求的用户：token 优先，其次为显式传入的 user_id
func requestUserID(c *gin.Context, explicit *uint) *uint {
	if id, ok := middleware.CurrentUserID(c); ok {
		return &id
	}
	return explicit
}

// queryUserID 从 ?user_id= 解析当前用户
func queryUserID(c *gin.Context) *uint {
	return requestUserID(c, parseUserID(c.Query("user_id")))
}

// bodyUserID 请求体中的 user_id（0 视为未提供）
func bodyUserID(c *gin.Context, explicit uint) (uint, bool) {
	var id *uint
	if explicit > 0 {
		id = &explicit
	}
	if uid := requestUserID(c, id); uid != nil {
		return *uid, true
	}
	return 0, false
}

// paramID 解析路径中的 :id
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt 解析整数查询参数，非法时返回默认值
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// respondError 将业务错误映射为HTTP响应
func respondError(c *gin.Context, err error) {
	message, fields, ok := services.MessageOf(err)

	switch {
	case errors.Is(err, services.ErrCatalogUnavailable):
		utils.InternalError(c, "Failed to fetch books")
	case ok && errors.Is(err, errors.NotValid):
		utils.ValidationError(c, message, fields)
	case ok && errors.Is(err, errors.NotFound):
		utils.NotFound(c, message)
	case ok && errors.Is(err, errors.Forbidden):
		utils.Forbidden(c, message)
	case ok && errors.Is(err, errors.Unauthorized):
		utils.Unauthorized(c, message)
	case ok && errors.Is(err, errors.QuotaLimitExceeded):
		utils.TooManyRequests(c, message)
	default:
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		utils.InternalError(c, "")
	}
}
