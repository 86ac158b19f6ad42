package downloader

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

// ConvertOptions 格式归一化选项
type ConvertOptions struct {
	// PNGToJPEG 为 true 时把 png 转码为 jpeg
	PNGToJPEG bool
	// Quality JPEG 质量（1-100）
	Quality int
	// MaxWidth 大于 0 时，超宽图片在转码前等比缩小到该宽度
	MaxWidth int
}

// MaybeConvert 按配置对下载内容做格式归一化。
// 目前只处理 png→jpeg：先铺一层不透明白底（压平透明通道）再按质量编码。
// 任何一步失败都静默退回原始字节和扩展名，转码失败绝不影响整体下载。
func MaybeConvert(data []byte, ext string, opts ConvertOptions, log *logrus.Entry) ([]byte, string) {
	if !opts.PNGToJPEG || ext != "png" {
		return data, ext
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debugf("png 解码失败，保留原始内容: %v", err)
		return data, ext
	}

	flat := flattenOnWhite(src)

	if opts.MaxWidth > 0 && flat.Bounds().Dx() > opts.MaxWidth {
		flat = downscale(flat, opts.MaxWidth)
	}

	quality := opts.Quality
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		log.Debugf("jpeg 编码失败，保留原始内容: %v", err)
		return data, ext
	}

	return buf.Bytes(), "jpg"
}

// flattenOnWhite 把图片合成到不透明白底上，去掉透明通道。
func flattenOnWhite(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	white := image.NewUniform(color.White)
	draw.Draw(dst, b, white, image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}

// downscale 等比缩小到目标宽度，BiLinear 重采样。
func downscale(src *image.NRGBA, maxWidth int) *image.NRGBA {
	b := src.Bounds()
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
