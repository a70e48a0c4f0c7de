package interfaces

import (
	"context"

	"catblog-backend/internal/model"
)

// PostRepository 帖子的读写；category 为空表示不过滤
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id int) (*model.Post, error)
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context, category string, limit, offset int) ([]*model.Post, error)
	Count(ctx context.Context, category string) (int, error)
	ListByUser(ctx context.Context, userID int) ([]*model.Post, error)
}
