package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"catblog-backend/config"
)

// 存储中的目录划分
const (
	AvatarDir = "avatars"
	PostDir   = "posts"
)

// UploadsURLPrefix 本地存储的静态文件路由
const UploadsURLPrefix = "/uploads"

// ErrInvalidPath 路径为空、是绝对路径或试图跳出存储根目录
var ErrInvalidPath = errors.New("invalid storage path")

// Storage 上传文件的存储后端
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Remove(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	URL(path string) string
}

// AvatarPath 头像在存储中的位置
func AvatarPath(name string) string {
	return path.Join(AvatarDir, name)
}

// PostImagePath 帖子图片在存储中的位置
func PostImagePath(name string) string {
	return path.Join(PostDir, name)
}

// cleanKey 统一使用 / 分隔的相对路径
func cleanKey(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	key := path.Clean(p)
	if key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return "", ErrInvalidPath
	}
	return key, nil
}

// New 根据配置选择存储后端
func New(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStorage(cfg.LocalStoragePath, UploadsURLPrefix)
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	}
	return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
}
