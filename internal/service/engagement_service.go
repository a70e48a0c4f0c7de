package service

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

// DefaultPostsPerPage 首页和分类页每页的帖子数
const DefaultPostsPerPage = 6

const lockStripes = 64

// stripedMutex 把 (用户, 帖子) 映射到固定数量的互斥锁上
type stripedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (m *stripedMutex) lock(userID, postID int) func() {
	idx := (uint(userID)*31 + uint(postID)) % lockStripes
	m.stripes[idx].Lock()
	return m.stripes[idx].Unlock
}

// EngagementService 点赞、评论以及带统计信息的帖子列表
type EngagementService struct {
	postRepo       interfaces.PostRepository
	engagementRepo interfaces.EngagementRepository
	perPage        int
	locks          stripedMutex
	now            func() time.Time
}

func NewEngagementService(postRepo interfaces.PostRepository, engagementRepo interfaces.EngagementRepository, perPage int) *EngagementService {
	if perPage <= 0 {
		perPage = DefaultPostsPerPage
	}
	return &EngagementService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		perPage:        perPage,
		now:            time.Now,
	}
}

// ToggleLike 切换点赞状态并返回最新的点赞数
func (s *EngagementService) ToggleLike(ctx context.Context, userID, postID int) (*model.LikeResult, error) {
	if userID <= 0 {
		return nil, errors.New(errors.ErrUnauthorized, "Please login to like posts")
	}

	unlock := s.locks.lock(userID, postID)
	defer unlock()

	liked, count, err := s.engagementRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		if stderrors.Is(err, interfaces.ErrNotFound) {
			return nil, errors.New(errors.ErrPostNotFound, "Post not found")
		}
		return nil, errors.Wrap(errors.ErrDatabase, "切换点赞状态失败", err)
	}

	util.Logger.Info("点赞状态已切换",
		zap.Int("user_id", userID), zap.Int("post_id", postID),
		zap.Bool("liked", liked), zap.Int("count", count))
	return &model.LikeResult{Liked: liked, Count: count}, nil
}

// AddComment 内容去掉首尾空白后为空时不创建评论，也不返回错误
func (s *EngagementService) AddComment(ctx context.Context, userID, postID int, content string) (*model.Comment, error) {
	if userID <= 0 {
		return nil, errors.New(errors.ErrUnauthorized, "Please login to comment!")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	comment := &model.Comment{
		UserID:    userID,
		PostID:    postID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.engagementRepo.CreateComment(ctx, comment); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "创建评论失败", err)
	}
	return comment, nil
}

// ListPosts 按创建时间倒序分页；页码超出范围时返回空页
func (s *EngagementService) ListPosts(ctx context.Context, page, perPage int, category string) (*model.PostPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.perPage
	}

	total, err := s.postRepo.Count(ctx, category)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "统计帖子失败", err)
	}

	// 用除法判断页码是否越界，避免很大的页码相乘溢出
	var posts []*model.Post
	if total > 0 && page-1 <= (total-1)/perPage {
		posts, err = s.postRepo.List(ctx, category, perPage, (page-1)*perPage)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "获取帖子列表失败", err)
		}
		if err := attachCounts(ctx, s.engagementRepo, posts); err != nil {
			return nil, err
		}
	}

	result := model.NewPostPage(posts, page, perPage, total)
	result.Category = category
	return result, nil
}

// ListLikedPostIDs 匿名用户返回空集合
func (s *EngagementService) ListLikedPostIDs(ctx context.Context, userID int) (map[int]struct{}, error) {
	liked := make(map[int]struct{})
	if userID <= 0 {
		return liked, nil
	}
	ids, err := s.engagementRepo.LikedPostIDs(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取点赞记录失败", err)
	}
	for _, id := range ids {
		liked[id] = struct{}{}
	}
	return liked, nil
}

// GetPost 返回帖子详情，评论按时间正序
func (s *EngagementService) GetPost(ctx context.Context, viewerID, postID int) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "Post not found")
	}

	if post.LikeCount, err = s.engagementRepo.CountLikes(ctx, postID); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "统计点赞失败", err)
	}
	comments, err := s.engagementRepo.ListComments(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取评论失败", err)
	}
	if comments == nil {
		comments = []*model.Comment{}
	}
	post.Comments = comments
	post.CommentCount = len(comments)

	if viewerID > 0 {
		if post.LikedByMe, err = s.engagementRepo.IsLiked(ctx, viewerID, postID); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "查询点赞状态失败", err)
		}
	}
	return post, nil
}

func (s *EngagementService) requirePost(ctx context.Context, postID int) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "查询帖子失败", err)
	}
	if !exists {
		return errors.New(errors.ErrPostNotFound, "Post not found")
	}
	return nil
}

// attachCounts 一次查询填充一页帖子的点赞数和评论数
func attachCounts(ctx context.Context, repo interfaces.EngagementRepository, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := repo.LikeCounts(ctx, ids)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "统计点赞失败", err)
	}
	comments, err := repo.CommentCounts(ctx, ids)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "统计评论失败", err)
	}
	for _, p := range posts {
		p.LikeCount = likes[p.ID]
		p.CommentCount = comments[p.ID]
	}
	return nil
}

type EngagementServiceInterface interface {
	ToggleLike(ctx context.Context, userID, postID int) (*model.LikeResult, error)
	AddComment(ctx context.Context, userID, postID int, content string) (*model.Comment, error)
	ListPosts(ctx context.Context, page, perPage int, category string) (*model.PostPage, error)
	ListLikedPostIDs(ctx context.Context, userID int) (map[int]struct{}, error)
	GetPost(ctx context.Context, viewerID, postID int) (*model.Post, error)
}

var _ EngagementServiceInterface = (*EngagementService)(nil)
