package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

type LocalStorage struct {
	basePath  string
	urlPrefix string
}

func NewLocalStorage(basePath, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath, urlPrefix: urlPrefix}, nil
}

func (s *LocalStorage) fullPath(p string) (string, error) {
	key, err := cleanKey(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Write 先写临时文件再重命名，读者不会看到写了一半的文件
func (s *LocalStorage) Write(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.fullPath(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("保存文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("保存文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("保存文件失败: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return fmt.Errorf("保存文件失败: %w", err)
	}

	util.Logger.Info("文件保存成功", zap.String("fullPath", fullPath))
	return nil
}

// Remove 删除文件，文件不存在不算错误
func (s *LocalStorage) Remove(ctx context.Context, p string) error {
	fullPath, err := s.fullPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, p string) (bool, error) {
	fullPath, err := s.fullPath(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// URL 返回由静态文件路由提供的访问地址
func (s *LocalStorage) URL(p string) string {
	return s.urlPrefix + "/" + p
}
