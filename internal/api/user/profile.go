package user

import (
	"io"
	"net/http"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/service"
	"catblog-backend/internal/session"
	"catblog-backend/internal/storage"
	"catblog-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	userService   service.UserServiceInterface
	postService   service.PostServiceInterface
	avatarService service.AvatarServiceInterface
	storage       storage.Storage
}

func NewProfileHandler(userService service.UserServiceInterface, postService service.PostServiceInterface,
	avatarService service.AvatarServiceInterface, storage storage.Storage) *ProfileHandler {
	return &ProfileHandler{
		userService:   userService,
		postService:   postService,
		avatarService: avatarService,
		storage:       storage,
	}
}

// GetProfile 当前用户资料和他发布的帖子
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := session.CurrentUserID(c)
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		util.Logger.Error("获取用户资料失败", zap.Error(err), zap.Int("user_id", userID))
		errors.HandleError(c, err)
		return
	}

	posts, err := h.postService.ListUserPosts(c.Request.Context(), userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user":       user,
		"avatar_url": h.storage.URL(storage.AvatarPath(user.Avatar)),
		"posts":      posts,
		"flash":      session.PopFlash(c),
	}, "")
}

// UploadAvatar 表单字段为 avatar，返回 {"success", "avatar"} 或 {"error"}
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	var (
		file     io.Reader
		filename string
	)
	fileHeader, err := c.FormFile("avatar")
	if err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			errors.HandlePayloadError(c, errors.Wrap(errors.ErrBadRequest, "no file", err))
			return
		}
		defer f.Close()
		file, filename = f, fileHeader.Filename
	}

	result, err := h.avatarService.UploadAvatar(c.Request.Context(), session.CurrentUserID(c), file, filename)
	if err != nil {
		errors.HandlePayloadError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
