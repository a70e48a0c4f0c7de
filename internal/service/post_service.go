package service

import (
	"context"
	"io"
	"strings"
	"time"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/storage"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

// Upload 客户端上传的文件，Filename 只用于判断扩展名
type Upload struct {
	Filename string
	Body     io.Reader
}

type PostService struct {
	postRepo       interfaces.PostRepository
	engagementRepo interfaces.EngagementRepository
	store          storage.Storage
	now            func() time.Time
}

func NewPostService(postRepo interfaces.PostRepository, engagementRepo interfaces.EngagementRepository, store storage.Storage) *PostService {
	return &PostService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		store:          store,
		now:            time.Now,
	}
}

// CreatePost 创建帖子，图片可选
func (s *PostService) CreatePost(ctx context.Context, userID int, input model.NewPost, image *Upload) (*model.Post, error) {
	if userID <= 0 {
		return nil, errors.New(errors.ErrUnauthorized, "Please login to create a post!")
	}

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, errors.New(errors.ErrBadRequest, "Title and content are required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = model.DefaultCategory
	}

	now := s.now().UTC()
	post := &model.Post{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if image != nil && image.Body != nil && image.Filename != "" {
		name, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		post.Image = name
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if post.Image != "" {
			s.removeImage(post.Image)
		}
		return nil, errors.Wrap(errors.ErrDatabase, "创建帖子失败", err)
	}

	util.Logger.Info("帖子发布成功", zap.Int("post_id", post.ID), zap.Int("user_id", userID))
	return post, nil
}

func (s *PostService) saveImage(ctx context.Context, image *Upload) (string, error) {
	if !util.IsAllowedImage(image.Filename) {
		return "", errors.New(errors.ErrBadRequest, "invalid type")
	}
	data, err := io.ReadAll(image.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrBadRequest, "读取上传文件失败", err)
	}

	name := util.GenerateStorageName(image.Filename)
	if err := s.store.Write(ctx, storage.PostImagePath(name), data); err != nil {
		util.Logger.Error("保存帖子图片失败", zap.Error(err), zap.String("name", name))
		return "", errors.Wrap(errors.ErrStorage, "保存图片失败", err)
	}
	return name, nil
}

func (s *PostService) removeImage(name string) {
	if err := s.store.Remove(context.Background(), storage.PostImagePath(name)); err != nil {
		util.Logger.Warn("删除帖子图片失败", zap.Error(err), zap.String("name", name))
	}
}

// ListUserPosts 个人主页的帖子，按创建时间倒序
func (s *PostService) ListUserPosts(ctx context.Context, userID int) ([]*model.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取用户帖子失败", err)
	}
	if err := attachCounts(ctx, s.engagementRepo, posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return posts, nil
}

type PostServiceInterface interface {
	CreatePost(ctx context.Context, userID int, input model.NewPost, image *Upload) (*model.Post, error)
	ListUserPosts(ctx context.Context, userID int) ([]*model.Post, error)
}

var _ PostServiceInterface = (*PostService)(nil)
