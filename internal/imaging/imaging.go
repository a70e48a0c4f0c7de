package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

const (
	AvatarSize  = 200
	JPEGQuality = 85
	// MaxPixels 解码前按图片头里的尺寸检查，压缩率很高的小文件也可能解码出巨大的图像
	MaxPixels = 24_000_000
)

var ErrTooManyPixels = errors.New("图片像素过多")

// NormalizeAvatar 解码上传的图片，铺白色底去掉透明通道，
// 缩放到固定的 200x200（不保持宽高比），再按 ext 对应的格式编码
func NormalizeAvatar(r io.Reader, ext string) ([]byte, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("不支持的图片格式 %q: %w", ext, err)
	}

	// 先只读图片头，读过的字节再拼回去完整解码
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(io.MultiReader(&header, r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}

	flat := Flatten(src)
	resized := imaging.Resize(flat, AvatarSize, AvatarSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("编码图片失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Flatten 把图片合成到不透明的白色背景上
func Flatten(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)
}
