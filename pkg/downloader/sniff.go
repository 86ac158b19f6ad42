package downloader

import "bytes"

// signature 二进制魔数签名：prefix 在 offset 处出现即判定为 ext。
type signature struct {
	prefix []byte
	offset int
	ext    string
}

// 按优先级排列的签名表，先命中者生效。只看前 12 个字节。
// RIFF 容器统一归一化为 jpg（WEBP 归一化成 jpg 是为了阅读器兼容；
// 没有 WEBP 标记的 RIFF 也按 jpg 兜底处理）。
var signatures = []signature{
	{prefix: []byte{0x89, 0x50, 0x4E, 0x47}, ext: "png"},
	{prefix: []byte{0xFF, 0xD8}, ext: "jpg"},
	{prefix: []byte{0x47, 0x49, 0x46}, ext: "gif"},
	{prefix: []byte{0x52, 0x49, 0x46, 0x46}, ext: "jpg"},
	{prefix: []byte{0x42, 0x4D}, ext: "bmp"},
}

// SniffExt 根据文件头部字节判断真实的图片格式。
// 返回的扩展名是二进制事实，优先级高于 URL 里声称的扩展名。
// 识别不出时 ok 为 false，由调用方退回 URL 扩展名。
func SniffExt(data []byte) (string, bool) {
	head := data
	if len(head) > 12 {
		head = head[:12]
	}

	for _, sig := range signatures {
		if sig.offset+len(sig.prefix) > len(head) {
			continue
		}
		if bytes.Equal(head[sig.offset:sig.offset+len(sig.prefix)], sig.prefix) {
			return sig.ext, true
		}
	}

	return "", false
}

// ResolveExt 合并嗅探结果与 URL 扩展名：嗅探命中则以嗅探为准，
// 否则保留 URL 扩展名，两者都没有时默认 jpg。
// webp / awebp / jpeg 一律归一化为 jpg。
func ResolveExt(sniffed, urlExt string) string {
	ext := sniffed
	if ext == "" {
		ext = urlExt
	}
	if ext == "" {
		return "jpg"
	}

	switch ext {
	case "jpeg", "webp", "awebp":
		return "jpg"
	}
	return ext
}
