package sqlstore

import (
	"context"
	"database/sql"

	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) interfaces.PostRepository {
	return &postRepository{db: db}
}

const postSelect = `
	SELECT p.id, p.user_id, p.title, p.content, p.image, p.category, p.created_at, p.updated_at,
	       u.username, u.avatar
	FROM posts p
	JOIN users u ON p.user_id = u.id`

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	var image sql.NullString
	if post.Image != "" {
		image = sql.NullString{String: post.Image, Valid: true}
	}

	query := `INSERT INTO posts (title, content, image, category, created_at, updated_at, user_id)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		post.Title, post.Content, image, post.Category, post.CreatedAt, post.UpdatedAt, post.UserID)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err), zap.Int("user_id", post.UserID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新帖子ID失败", zap.Error(err))
		return err
	}
	post.ID = int(id)

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

// FindByID 获取帖子及作者信息，不存在时返回 nil, nil
func (r *postRepository) FindByID(ctx context.Context, id int) (*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, postSelect+` WHERE p.id = ?`, id)
	if err != nil {
		return nil, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return posts[0], nil
}

func (r *postRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// List 按创建时间倒序分页
func (r *postRepository) List(ctx context.Context, category string, limit, offset int) ([]*model.Post, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = r.db.QueryContext(ctx,
			postSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx,
			postSelect+` WHERE p.category = ? ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
			category, limit, offset)
	}
	if err != nil {
		util.Logger.Error("获取帖子列表失败", zap.Error(err), zap.String("category", category))
		return nil, err
	}
	return scanPosts(rows)
}

func (r *postRepository) Count(ctx context.Context, category string) (int, error) {
	var total int
	var err error
	if category == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE category = ?`, category).Scan(&total)
	}
	return total, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		postSelect+` WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC`, userID)
	if err != nil {
		util.Logger.Error("获取用户帖子失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]*model.Post, error) {
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		var post model.Post
		var image sql.NullString
		author := &model.Author{}
		err := rows.Scan(
			&post.ID, &post.UserID, &post.Title, &post.Content, &image, &post.Category,
			&post.CreatedAt, &post.UpdatedAt,
			&author.Username, &author.Avatar,
		)
		if err != nil {
			return nil, err
		}
		post.Image = image.String
		author.ID = post.UserID
		post.Author = author
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}
