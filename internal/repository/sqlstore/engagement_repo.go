package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"catblog-backend/internal/common"
	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

type engagementRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewEngagementRepository(db *sql.DB, dialect Dialect) interfaces.EngagementRepository {
	return &engagementRepository{db: db, dialect: dialect, now: time.Now}
}

// toggleAttempts 死锁或锁等待超时后整个事务最多执行的次数
const toggleAttempts = 3

// ToggleLike 在一个事务中查询点赞记录，存在则删除，不存在则插入。
// 唯一索引冲突说明并发请求已经插入了同一条记录，按已点赞处理；
// 死锁和锁等待超时时重新执行整个事务。
func (r *engagementRepository) ToggleLike(ctx context.Context, userID, postID int) (bool, int, error) {
	var liked bool
	err := common.WithRetry(ctx, toggleAttempts, 10*time.Millisecond, func(ctx context.Context) error {
		var err error
		liked, err = r.toggleOnce(ctx, userID, postID)
		if err == nil || !r.dialect.IsRetryable(err) {
			return common.Permanent(err)
		}
		util.Logger.Warn("点赞事务冲突，重新执行", zap.Error(err),
			zap.Int("user_id", userID), zap.Int("post_id", postID))
		return err
	})
	if err != nil {
		return false, 0, err
	}

	// 提交后再计数，包含其他事务已提交的记录
	count, err := r.CountLikes(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *engagementRepository) toggleOnce(ctx context.Context, userID, postID int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// 检查帖子是否存在
	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, postID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, interfaces.ErrNotFound
	}

	var likeID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM likes WHERE user_id = ? AND post_id = ?`+r.dialect.LockClause,
		userID, postID).Scan(&likeID)

	var liked bool
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?)`,
			userID, postID, r.now().UTC())
		if err != nil && !r.dialect.IsUniqueViolation(err) {
			util.Logger.Error("插入点赞记录失败", zap.Error(err),
				zap.Int("user_id", userID), zap.Int("post_id", postID))
			return false, err
		}
		if err != nil {
			util.Logger.Info("并发点赞冲突，按已点赞处理",
				zap.Int("user_id", userID), zap.Int("post_id", postID))
		}
		liked = true
	case err != nil:
		return false, err
	default:
		if _, err = tx.ExecContext(ctx, `DELETE FROM likes WHERE id = ?`, likeID); err != nil {
			util.Logger.Error("删除点赞记录失败", zap.Error(err), zap.Int("like_id", likeID))
			return false, err
		}
		liked = false
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return false, err
	}
	return liked, nil
}

func (r *engagementRepository) CountLikes(ctx context.Context, postID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

func (r *engagementRepository) IsLiked(ctx context.Context, userID, postID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = ? AND post_id = ?)`,
		userID, postID).Scan(&exists)
	return exists, err
}

func (r *engagementRepository) LikedPostIDs(ctx context.Context, userID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT post_id FROM likes WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *engagementRepository) LikeCounts(ctx context.Context, postIDs []int) (map[int]int, error) {
	return r.groupCount(ctx, "likes", postIDs)
}

func (r *engagementRepository) CommentCounts(ctx context.Context, postIDs []int) (map[int]int, error) {
	return r.groupCount(ctx, "comments", postIDs)
}

// groupCount 按帖子统计记录数；table 只会是内部常量
func (r *engagementRepository) groupCount(ctx context.Context, table string, postIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	marks, args := placeholders(postIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id, COUNT(*) FROM `+table+` WHERE post_id IN (`+marks+`) GROUP BY post_id`, args...)
	if err != nil {
		util.Logger.Error("统计失败", zap.Error(err), zap.String("table", table))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID, count int
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, err
		}
		counts[postID] = count
	}
	return counts, rows.Err()
}

func (r *engagementRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	query := `INSERT INTO comments (content, created_at, user_id, post_id) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, comment.Content, comment.CreatedAt, comment.UserID, comment.PostID)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err),
			zap.Int("user_id", comment.UserID), zap.Int("post_id", comment.PostID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新评论ID失败", zap.Error(err))
		return err
	}
	comment.ID = int(id)

	util.Logger.Info("评论创建成功", zap.Int("comment_id", comment.ID), zap.Int("post_id", comment.PostID))
	return nil
}

// ListComments 按创建时间正序返回
func (r *engagementRepository) ListComments(ctx context.Context, postID int) ([]*model.Comment, error) {
	query := `
        SELECT c.id, c.user_id, c.post_id, c.content, c.created_at, u.username, u.avatar
        FROM comments c
        JOIN users u ON c.user_id = u.id
        WHERE c.post_id = ?
        ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var comment model.Comment
		author := &model.Author{}
		err := rows.Scan(
			&comment.ID, &comment.UserID, &comment.PostID, &comment.Content, &comment.CreatedAt,
			&author.Username, &author.Avatar,
		)
		if err != nil {
			return nil, err
		}
		author.ID = comment.UserID
		comment.Author = author
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}
