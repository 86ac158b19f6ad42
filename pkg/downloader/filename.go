package downloader

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

const maxFragmentWidth = 30

var (
	// 文件系统不安全字符
	reUnsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	// 纯数字的路径段（大概率是 id，不适合做文件名）
	reNumericSegment = regexp.MustCompile(`^\d+$`)
	// 8 位以上的十六进制串（哈希样 id）
	reHexSegment = regexp.MustCompile(`^[0-9a-fA-F]{8,}$`)
)

// SynthesizeName 根据最终字节和 URL 合成本地文件名。
//
// hashNames 为 true 时走哈希策略：内容 MD5 + 从 URL 提取的可读片段，
// 组合成 <片段>-<哈希前8位>.<ext>；提取不到片段时退回主机名，
// 连主机名都没有时用裸哈希做文件名主干。
// 否则走原名策略：URL 最后一个路径段净化后直接使用。
//
// 两种策略都保证结果只含一个扩展名分隔符，且以解析出的扩展名结尾。
func SynthesizeName(rawURL string, data []byte, ext string, hashNames bool) string {
	if hashNames {
		return hashName(rawURL, data, ext)
	}
	return originalName(rawURL, data, ext)
}

func hashName(rawURL string, data []byte, ext string) string {
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	frag := readableFragment(rawURL)
	if frag == "" {
		return hash + "." + ext
	}

	return frag + "-" + hash[:8] + "." + ext
}

func originalName(rawURL string, data []byte, ext string) string {
	seg := lastSegment(rawURL)
	if seg == "" {
		// 没有可用的路径段，退回哈希策略兜底
		return hashName(rawURL, data, ext)
	}

	stem := sanitizeStem(strings.TrimSuffix(seg, path.Ext(seg)))
	if stem == "" {
		return hashName(rawURL, data, ext)
	}

	return stem + "." + ext
}

// readableFragment 从 URL 提取人类可读的文件名片段。
// 从最后一个路径段向前扫，跳过纯数字和哈希样的 id 段；
// 全部路径段都不可用时退回主机名（点替换为横线）。
func readableFragment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		stem := strings.TrimSuffix(seg, path.Ext(seg))
		if stem == "" || reNumericSegment.MatchString(stem) || reHexSegment.MatchString(stem) {
			continue
		}
		return truncateFragment(sanitizeStem(stem))
	}

	host := u.Hostname()
	if host == "" {
		return ""
	}
	return truncateFragment(sanitizeStem(strings.ReplaceAll(host, ".", "-")))
}

// lastSegment 取 URL 的最后一个非空路径段。
func lastSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// sanitizeStem 替换文件系统不安全字符，并把残留的点收敛成下划线，
// 保证最终文件名只有一个扩展名分隔符。
func sanitizeStem(s string) string {
	s = reUnsafeChars.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, ".", "_")
	return strings.Trim(s, "_ ")
}

// truncateFragment 按显示宽度截断片段，多字节字符不会被截半。
func truncateFragment(s string) string {
	return runewidth.Truncate(s, maxFragmentWidth, "")
}
