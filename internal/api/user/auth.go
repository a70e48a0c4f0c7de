package user

import (
	"net/http"
	"strings"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/service"
	"catblog-backend/internal/session"
	"catblog-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 处理与认证相关的HTTP请求。
// 表单提交返回跳转和提示；JSON 请求返回状态码和令牌。
type AuthHandler struct {
	userService service.UserServiceInterface
	sessions    *session.Manager
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(userService service.UserServiceInterface, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{userService: userService, sessions: sessions}
}

type registerForm struct {
	Username string `form:"username" json:"username" binding:"required,notblank,max=80"`
	Email    string `form:"email" json:"email" binding:"required,email,max=120"`
	Password string `form:"password" json:"password" binding:"required"`
}

type loginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		h.fail(c, errors.Wrap(errors.ErrValidation, "Please fill in all fields correctly", err), "/register")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		if errors.HasCode(err, errors.ErrUserExists) {
			util.Logger.Warn("注册失败，用户已存在", zap.String("username", form.Username))
		}
		h.fail(c, err, "/register")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, errors.SuccessResponse{
			Code:    http.StatusCreated,
			Message: "Registration successful! Please login.",
			Data:    gin.H{"user": user},
		})
		return
	}
	session.SetFlash(c, "success", "Registration successful! Please login.")
	c.Redirect(http.StatusSeeOther, "/login")
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errors.Wrap(errors.ErrValidation, "Invalid username or password!", err), "/login")
		return
	}

	user, err := h.userService.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		h.fail(c, err, "/login")
		return
	}

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.fail(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err), "/login")
		return
	}
	h.sessions.SetCookie(c, token)

	if wantsJSON(c) {
		errors.HandleSuccess(c, gin.H{
			"token": token,
			"user":  user,
		}, "Login successful!")
		return
	}
	session.SetFlash(c, "success", "Login successful!")
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout 撤销当前令牌并清除 cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.sessions.TokenFromRequest(c); token != "" {
		h.sessions.Revoke(token)
	}
	h.sessions.ClearCookie(c)

	if wantsJSON(c) {
		errors.HandleSuccess(c, nil, "You have been logged out.")
		return
	}
	session.SetFlash(c, "info", "You have been logged out.")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) fail(c *gin.Context, err error, target string) {
	if wantsJSON(c) {
		errors.HandleError(c, err)
		return
	}
	_ = c.Error(err)
	message := "Something went wrong, please try again"
	if appErr, ok := errors.As(err); ok && errors.StatusOf(err) < http.StatusInternalServerError {
		message = appErr.Message
	}
	session.SetFlash(c, "error", message)
	c.Redirect(http.StatusSeeOther, target)
}

// wantsJSON API 客户端用 JSON 提交或声明只接受 JSON
func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON ||
		strings.HasPrefix(c.GetHeader("Accept"), gin.MIMEJSON)
}
