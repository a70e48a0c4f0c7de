package service

import (
	"context"
	"io"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/imaging"
	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"
	"catblog-backend/internal/storage"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

// AvatarService 头像上传：校验、规范化、保存，再替换旧头像
type AvatarService struct {
	userRepo      interfaces.UserRepository
	store         storage.Storage
	defaultAvatar string
}

func NewAvatarService(userRepo interfaces.UserRepository, store storage.Storage, defaultAvatar string) *AvatarService {
	return &AvatarService{
		userRepo:      userRepo,
		store:         store,
		defaultAvatar: defaultAvatar,
	}
}

// UploadAvatar 新文件写入成功且数据库更新成功之后才删除旧头像。
// 数据库更新之前的任何失败都不会改变用户当前的头像。
func (s *AvatarService) UploadAvatar(ctx context.Context, userID int, file io.Reader, originalFilename string) (*model.AvatarResult, error) {
	if userID <= 0 {
		return nil, errors.New(errors.ErrUnauthorized, "Please login to upload an avatar")
	}
	if file == nil || originalFilename == "" {
		return nil, errors.New(errors.ErrBadRequest, "no file")
	}
	if !util.IsAllowedImage(originalFilename) {
		return nil, errors.New(errors.ErrBadRequest, "invalid type")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	previous := user.Avatar

	ext := util.NormalizedExtension(originalFilename)
	name := util.GenerateStorageName(originalFilename)

	data, err := imaging.NormalizeAvatar(file, ext)
	if err != nil {
		util.Logger.Warn("处理头像失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, errors.Wrap(errors.ErrProcessing, "Could not process image", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrTimeout, "请求已取消", err)
	}
	path := storage.AvatarPath(name)
	if err := s.store.Write(ctx, path, data); err != nil {
		util.Logger.Error("保存头像失败", zap.Error(err), zap.String("path", path))
		return nil, errors.Wrap(errors.ErrProcessing, "Could not save image", err)
	}

	if err := ctx.Err(); err != nil {
		s.remove(path)
		return nil, errors.Wrap(errors.ErrTimeout, "请求已取消", err)
	}
	if err := s.userRepo.UpdateAvatar(ctx, userID, name); err != nil {
		s.remove(path)
		return nil, errors.Wrap(errors.ErrDatabase, "更新用户头像失败", err)
	}

	if previous != "" && previous != s.defaultAvatar && previous != name {
		s.removePrevious(storage.AvatarPath(previous))
	}

	util.Logger.Info("头像更新成功", zap.Int("user_id", userID), zap.String("avatar", name),
		zap.Int("bytes", len(data)))
	return &model.AvatarResult{Success: true, Avatar: name}, nil
}

// remove 失败只记录日志；使用独立的 context，请求取消后也能清理
func (s *AvatarService) remove(path string) {
	if err := s.store.Remove(context.Background(), path); err != nil {
		util.Logger.Warn("删除头像文件失败", zap.Error(err), zap.String("path", path))
	}
}

// removePrevious 旧头像文件已经不存在时跳过删除
func (s *AvatarService) removePrevious(path string) {
	exists, err := s.store.Exists(context.Background(), path)
	if err != nil {
		util.Logger.Warn("检查旧头像失败，仍尝试删除", zap.Error(err), zap.String("path", path))
	} else if !exists {
		util.Logger.Info("旧头像文件不存在，跳过删除", zap.String("path", path))
		return
	}
	s.remove(path)
}

type AvatarServiceInterface interface {
	UploadAvatar(ctx context.Context, userID int, file io.Reader, originalFilename string) (*model.AvatarResult, error)
}

var _ AvatarServiceInterface = (*AvatarService)(nil)
