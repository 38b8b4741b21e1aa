package util

import (
	"fmt"
	"net/http"
)

// AppError 带状态分类的业务错误，由 controller 统一翻译为 HTTP 响应
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewValidationError 请求内容不合法（文本格式、文件数量不匹配等）
func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError 记录不存在或模板类型不匹配
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message}
}

// NewForbiddenError 非所有者且非超级管理员
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: message}
}

// NewConflictError 唯一性冲突（重名）
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message}
}
