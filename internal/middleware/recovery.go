package middleware

import (
	"net/http"
	"runtime/debug"

	"catblog-backend/internal/model"
	"catblog-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware 堆栈只写日志，不返回给客户端
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				util.Logger.Error("发生panic",
					zap.Any("error", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("stack", string(debug.Stack())))

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					model.ErrorPayload{Error: "Internal Server Error"})
			}
		}()
		c.Next()
	}
}
