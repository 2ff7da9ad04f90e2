package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务状态码常量
const (
	CodeSuccess             = 20000 // 成功
	CodeError               = 40000 // 错误
	CodeUnauthorized        = 40100 // 未授权
	CodeForbidden           = 40300 // 禁止访问
	CodeNotFound            = 40400 // 资源不存在
	CodeValidationError     = 42200 // 验证错误
	CodeTooManyRequests     = 42900 // 请求过于频繁
	CodeInternalServerError = 50000 // 内部错误
)

// 业务状态码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:             "OK",
	CodeError:               "Bad request",
	CodeUnauthorized:        "Unauthenticated",
	CodeForbidden:           "Forbidden",
	CodeNotFound:            "Not found",
	CodeValidationError:     "Invalid input",
	CodeTooManyRequests:     "Too many requests",
	CodeInternalServerError: "Internal server error",
}

// GetCodeMessage 获取状态码对应的消息
func GetCodeMessage(code int) string {
	if msg, exists := codeMessages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// JSON 统一响应：code、message 与业务字段平铺在同一层
// 前端直接读取 book、books、preview_access 等字段
func JSON(c *gin.Context, status, code int, message string, payload gin.H) {
	if message == "" {
		message = GetCodeMessage(code)
	}
	body := gin.H{
		"code":    code,
		"message": message,
	}
	for k, v := range payload {
		if k == "code" {
			continue
		}
		body[k] = v
	}
	c.JSON(status, body)
}

// Success 成功响应
func Success(c *gin.Context, message string, payload gin.H) {
	JSON(c, http.StatusOK, CodeSuccess, message, payload)
}

// Created 创建成功响应
func Created(c *gin.Context, message string, payload gin.H) {
	JSON(c, http.StatusCreated, CodeSuccess, message, payload)
}

// BadRequest 请求错误响应
func BadRequest(c *gin.Context, message string) {
	JSON(c, http.StatusBadRequest, CodeError, message, nil)
}

// ValidationError 验证错误响应
func ValidationError(c *gin.Context, message string, errs map[string]string) {
	var payload gin.H
	if len(errs) > 0 {
		payload = gin.H{"errors": errs}
	}
	JSON(c, http.StatusUnprocessableEntity, CodeValidationError, message, payload)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	JSON(c, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	JSON(c, http.StatusForbidden, CodeForbidden, message, nil)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	JSON(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// TooManyRequests 限流响应
func TooManyRequests(c *gin.Context, message string) {
	JSON(c, http.StatusTooManyRequests, CodeTooManyRequests, message, nil)
}

// InternalError 内部错误响应
func InternalError(c *gin.Context, message string) {
	JSON(c, http.StatusInternalServerError, CodeInternalServerError, message, nil)
}
