package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

// Flash 页面跳转后展示一次的提示
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func SetFlash(c *gin.Context, category, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, category+"|"+message, 60, "/", "", false, true)
}

// PopFlash 读取并清除提示，没有时返回 nil。gin 负责 cookie 值的转义
func PopFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	category, message, found := strings.Cut(raw, "|")
	if !found {
		return &Flash{Category: "info", Message: raw}
	}
	return &Flash{Category: category, Message: message}
}
