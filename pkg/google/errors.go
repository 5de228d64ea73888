package google

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized     = errors.New("google: unauthorized")
	ErrPermissionDenied = errors.New("google: permission denied")
	ErrNotFound         = errors.New("google: not found")
)

// APIError GBP 接口返回的非 2xx 响应
type APIError struct {
	Op         string // 调用名，如 accounts.list
	StatusCode int
	Status     string // Google 的 status 字段，如 PERMISSION_DENIED
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("google %s: HTTP %d", e.Op, e.StatusCode)
}

// Is 让 errors.Is 可以按状态码匹配哨兵错误
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrPermissionDenied:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// errorBody Google 标准错误结构
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
