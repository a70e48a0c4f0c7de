package errors

import (
	"net/http"

	"catblog-backend/internal/model"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,
	ErrStorage:  http.StatusInternalServerError,
	ErrTimeout:  http.StatusRequestTimeout,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrResourceConflict: http.StatusConflict,

	// 业务错误 (4000-4999)
	ErrUserNotFound: http.StatusNotFound,
	ErrUserExists:   http.StatusConflict,
	ErrPostNotFound: http.StatusNotFound,
	ErrProcessing:   http.StatusInternalServerError,
}

// StatusOf 返回错误对应的 HTTP 状态码
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		if status := errorStatusMap[appErr.Code]; status != 0 {
			return status
		}
	}
	return http.StatusInternalServerError
}

// publicMessage 内部错误不向客户端暴露原始错误信息
func publicMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "Internal Server Error"
}

// HandleError 统一处理错误响应
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(StatusOf(err), ErrorResponse{
		Code:    CodeOf(err),
		Message: publicMessage(err),
	})
}

// HandlePayloadError 用于只返回 {"error": ...} 的 JSON 接口
func HandlePayloadError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(StatusOf(err), model.ErrorPayload{Error: publicMessage(err)})
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, data interface{}, message string) {
	resp := SuccessResponse{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
	c.JSON(http.StatusOK, resp)
}
