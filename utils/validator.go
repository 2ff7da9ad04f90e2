package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 初始化验证器：错误字段使用json标签名
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonTagName)
	}
}

// jsonTagName 取json标签作为字段名
func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// FormatBindingError 将绑定/验证错误转换为字段错误表
func FormatBindingError(err error) map[string]string {
	errorMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			errorMap[fe.Field()] = getErrorMessage(fe.Field(), fe.Tag(), fe.Param())
		}
		return errorMap
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		errorMap[typeErr.Field] = fmt.Sprintf("The %s field has an invalid type.", humanize(typeErr.Field))
		return errorMap
	}

	errorMap["body"] = "The request body must be valid JSON."
	return errorMap
}

// getErrorMessage 获取错误消息
func getErrorMessage(field, tag, param string) string {
	errorMessages := map[string]string{
		"required": "The %s field is required.",
		"email":    "The %s field must be a valid email address.",
		"min":      "The %s field must be at least %s.",
		"max":      "The %s field must not be greater than %s.",
		"gt":       "The %s field must be greater than %s.",
		"gte":      "The %s field must be at least %s.",
		"lt":       "The %s field must be less than %s.",
		"lte":      "The %s field must not be greater than %s.",
		"oneof":    "The selected %s is invalid.",
		"numeric":  "The %s field must be a number.",
	}

	template, exists := errorMessages[tag]
	if !exists {
		return fmt.Sprintf("The %s field is invalid.", humanize(field))
	}
	if strings.Count(template, "%s") == 2 {
		return fmt.Sprintf(template, humanize(field), param)
	}
	return fmt.Sprintf(template, humanize(field))
}

// humanize user_id -> user id
func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
