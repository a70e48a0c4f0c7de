package middleware

import (
	"net/http"

	"catblog-backend/internal/session"
	"catblog-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware 解析会话令牌，没有令牌或令牌无效时按匿名访问处理
func SessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessions.TokenFromRequest(c)
		if token != "" {
			claims, err := sessions.Parse(token)
			if err != nil {
				util.Logger.Debug("忽略无效的会话令牌",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
			} else {
				session.SetCurrentUserID(c, claims.UserID)
			}
		}
		c.Next()
	}
}

// RequireLogin 页面流程使用：未登录时带提示跳转到登录页
func RequireLogin(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.CurrentUserID(c) == 0 {
			util.Logger.Info("未登录访问受保护页面",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			session.SetFlash(c, "error", message)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
