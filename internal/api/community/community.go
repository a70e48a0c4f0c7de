package community

import (
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/model"
	"catblog-backend/internal/service"
	"catblog-backend/internal/session"
	"catblog-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommunityHandler struct {
	engagementService service.EngagementServiceInterface
	postService       service.PostServiceInterface
}

func NewCommunityHandler(engagementService service.EngagementServiceInterface, postService service.PostServiceInterface) *CommunityHandler {
	return &CommunityHandler{
		engagementService: engagementService,
		postService:       postService,
	}
}

type postForm struct {
	Title    string `form:"title" binding:"required,notblank,max=200"`
	Content  string `form:"content" binding:"required,notblank"`
	Category string `form:"category" binding:"max=50"`
}

// ListPosts 首页和分类页；分类来自路径参数，首页为空
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	category := c.Param("category")
	userID := session.CurrentUserID(c)

	posts, err := h.engagementService.ListPosts(c.Request.Context(), page, 0, category)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	liked, err := h.engagementService.ListLikedPostIDs(c.Request.Context(), userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	likedIDs := make([]int, 0, len(liked))
	for id := range liked {
		likedIDs = append(likedIDs, id)
	}
	sort.Ints(likedIDs)
	for _, post := range posts.Items {
		_, post.LikedByMe = liked[post.ID]
	}

	errors.HandleSuccess(c, gin.H{
		"posts":          posts,
		"liked_post_ids": likedIDs,
		"flash":          session.PopFlash(c),
	}, "")
}

// CreatePost 发帖表单，结果通过提示信息和跳转返回
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		util.Logger.Warn("发帖失败，无效的表单数据", zap.Error(err))
		session.SetFlash(c, "error", "Title and content are required")
		c.Redirect(http.StatusSeeOther, "/post/new")
		return
	}

	var image *service.Upload
	fileHeader, err := c.FormFile("image")
	if err != nil && err != http.ErrMissingFile && err != http.ErrNotMultipart {
		util.Logger.Warn("读取上传图片失败", zap.Error(err))
		session.SetFlash(c, "error", "Could not read the uploaded image")
		c.Redirect(http.StatusSeeOther, "/post/new")
		return
	}
	if fileHeader != nil && fileHeader.Filename != "" {
		file, err := fileHeader.Open()
		if err != nil {
			session.SetFlash(c, "error", "Could not read the uploaded image")
			c.Redirect(http.StatusSeeOther, "/post/new")
			return
		}
		defer closeFile(file)
		image = &service.Upload{Filename: fileHeader.Filename, Body: file}
	}

	userID := session.CurrentUserID(c)
	input := model.NewPost{Title: form.Title, Content: form.Content, Category: form.Category}
	if _, err := h.postService.CreatePost(c.Request.Context(), userID, input, image); err != nil {
		_ = c.Error(err)
		session.SetFlash(c, "error", messageOf(err))
		c.Redirect(http.StatusSeeOther, "/post/new")
		return
	}

	session.SetFlash(c, "success", "Post created successfully!")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *CommunityHandler) GetPost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		errors.HandleError(c, errors.New(errors.ErrPostNotFound, "Post not found"))
		return
	}

	post, err := h.engagementService.GetPost(c.Request.Context(), session.CurrentUserID(c), postID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"post":  post,
		"flash": session.PopFlash(c),
	}, "")
}

// ToggleLike 返回 {"liked", "count"}，失败时返回 {"error"}
func (h *CommunityHandler) ToggleLike(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		errors.HandlePayloadError(c, errors.New(errors.ErrPostNotFound, "Post not found"))
		return
	}

	result, err := h.engagementService.ToggleLike(c.Request.Context(), session.CurrentUserID(c), postID)
	if err != nil {
		errors.HandlePayloadError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AddComment 未登录时提示后跳回帖子页
func (h *CommunityHandler) AddComment(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		errors.HandleError(c, errors.New(errors.ErrPostNotFound, "Post not found"))
		return
	}
	target := "/post/" + strconv.Itoa(postID)

	comment, err := h.engagementService.AddComment(c.Request.Context(), session.CurrentUserID(c), postID, c.PostForm("content"))
	switch {
	case errors.HasCode(err, errors.ErrUnauthorized):
		session.SetFlash(c, "error", "Please login to comment!")
	case errors.HasCode(err, errors.ErrPostNotFound):
		errors.HandleError(c, err)
		return
	case err != nil:
		_ = c.Error(err)
		session.SetFlash(c, "error", messageOf(err))
	case comment != nil:
		session.SetFlash(c, "success", "Comment added successfully!")
	}
	c.Redirect(http.StatusSeeOther, target)
}

func postIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func messageOf(err error) string {
	if appErr, ok := errors.As(err); ok && errors.StatusOf(err) < http.StatusInternalServerError {
		return appErr.Message
	}
	return "Something went wrong, please try again"
}

func closeFile(f multipart.File) {
	if err := f.Close(); err != nil {
		util.Logger.Warn("关闭上传文件失败", zap.Error(err))
	}
}
