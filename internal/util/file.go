package util

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AllowedImageExtensions 允许上传的图片扩展名
var AllowedImageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// NormalizedExtension 返回小写且不带点的扩展名
func NormalizedExtension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedImage 只检查扩展名，不检查文件内容
func IsAllowedImage(filename string) bool {
	return AllowedImageExtensions[NormalizedExtension(filename)]
}

// GenerateStorageName 生成唯一的存储文件名，不使用客户端提供的文件名
func GenerateStorageName(originalFilename string) string {
	ext := NormalizedExtension(originalFilename)
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}
