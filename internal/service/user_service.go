package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// WelcomeMailer 注册成功后发送欢迎邮件，实现方自行决定是否异步
type WelcomeMailer interface {
	SendWelcomeEmail(email, username string)
}

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo      interfaces.UserRepository
	mailer        WelcomeMailer
	defaultAvatar string
	now           func() time.Time
}

// NewUserService 创建一个新的 UserService 实例；mailer 为 nil 时不发送邮件
func NewUserService(userRepo interfaces.UserRepository, mailer WelcomeMailer, defaultAvatar string) *UserService {
	return &UserService{
		userRepo:      userRepo,
		mailer:        mailer,
		defaultAvatar: defaultAvatar,
		now:           time.Now,
	}
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, errors.New(errors.ErrValidation, "Username, email and password are required")
	}

	// 检查用户名是否已被使用
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrUserExists, "Username already exists!")
	}

	existing, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrUserExists, "Email already registered!")
	}

	// 生成密码哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Avatar:       s.defaultAvatar,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, errors.Wrap(errors.ErrUserExists, "Username or email already exists!", err)
		}
		return nil, errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}

	if s.mailer != nil {
		s.mailer.SendWelcomeEmail(user.Email, user.Username)
	}

	util.Logger.Info("用户注册成功", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login 用户名和密码登录
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		util.Logger.Info("用户登录失败，未找到用户", zap.String("username", username))
		return nil, errors.New(errors.ErrInvalidCredentials, "Invalid username or password!")
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("用户登录失败，密码不正确", zap.Int("user_id", user.ID))
		return nil, errors.New(errors.ErrInvalidCredentials, "Invalid username or password!")
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	return user, nil
}

type UserServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
