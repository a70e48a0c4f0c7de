package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB, dialect Dialect) interfaces.UserRepository {
	return &userRepository{db: db, dialect: dialect}
}

const userColumns = `id, username, email, password_hash, avatar, created_at`

// Create 创建一个新用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, avatar, created_at) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.Avatar, user.CreatedAt)
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", interfaces.ErrDuplicate, err)
		}
		util.Logger.Error("创建用户失败", zap.Error(err), zap.String("username", user.Username))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return err
	}
	user.ID = int(id)
	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

// FindByID 通过ID查找用户，不存在时返回 nil, nil
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Avatar, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查找用户失败", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// UpdateAvatar 只更新头像字段，用户名和邮箱不可修改
func (r *userRepository) UpdateAvatar(ctx context.Context, userID int, avatar string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, userID)
	if err != nil {
		util.Logger.Error("更新用户头像失败", zap.Error(err), zap.Int("user_id", userID))
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL 在值未变化时也返回 0，这里再确认一次用户是否存在
		user, err := r.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return interfaces.ErrNotFound
		}
	}
	return nil
}
