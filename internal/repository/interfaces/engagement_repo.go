package interfaces

import (
	"context"

	"catblog-backend/internal/model"
)

// EngagementRepository 定义了点赞和评论相关的数据库操作接口
type EngagementRepository interface {
	// ToggleLike 在一个事务中完成查询和插入/删除，返回切换后的状态和点赞总数
	ToggleLike(ctx context.Context, userID, postID int) (liked bool, count int, err error)
	CountLikes(ctx context.Context, postID int) (int, error)
	IsLiked(ctx context.Context, userID, postID int) (bool, error)
	LikedPostIDs(ctx context.Context, userID int) ([]int, error)
	LikeCounts(ctx context.Context, postIDs []int) (map[int]int, error)
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, postID int) ([]*model.Comment, error)
	CommentCounts(ctx context.Context, postIDs []int) (map[int]int, error)
}
