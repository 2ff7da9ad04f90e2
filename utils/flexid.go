package utils

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// FlexibleID 兼容前端以数字或字符串传入的id
// null、""、"null"、"undefined" 视为未提供（0）
type FlexibleID uint

// UnmarshalJSON 解析数字或数字字符串
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		switch s {
		case "", "null", "undefined":
			*id = 0
			return nil
		}
		raw = s
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(raw), Type: reflect.TypeOf(uint(0))}
	}
	*id = FlexibleID(n)
	return nil
}

// Uint 转换为uint
func (id FlexibleID) Uint() uint {
	return uint(id)
}
