package imageurl

import (
	"net/url"
	"regexp"
	"strings"
)

// 已知的图片扩展名（含需要归一化的 webp/awebp 族）
const knownExts = "png|jpe?g|gif|webp|svg|awebp|bmp|tiff?|avif"

// 分层启发式规则，任意一条命中即认为是图片 URL。
// 全部是纯字符串/正则判断，不发起任何网络请求。
var (
	// 1. 路径或查询串以图片扩展名结尾（允许跟 ?&# 或直接结束）
	reExtTail = regexp.MustCompile(`(?i)\.(` + knownExts + `)([?&#]|$)`)

	// 2. type= / format= / cf= / fmt= 参数携带图片扩展名
	reFormatParam = regexp.MustCompile(`(?i)[?&](type|format|cf|fmt)=(` + knownExts + `)([?&#]|$)`)

	// 3. 图床风格的路径片段
	reHostingSegment = regexp.MustCompile(`(?i)/(images?|photos?|pics?|media|uploads?|assets|static|attachments|thumb(nail)?s?)/`)

	// 4. CDN 风格的资源标识片段
	reCDNSegment = regexp.MustCompile(`(?i)/(res|cdn|img|imgs)/`)

	// 5. 嵌套/代理 URL：内嵌了编码或裸的子 URL，或 url/src 类参数
	reNestedURL   = regexp.MustCompile(`(?i)(https?%3a%2f%2f|[?&][a-z_]*(url|src|image|data|u)=)`)
	reNestedImage = regexp.MustCompile(`(?i)\.(` + knownExts + `)([?&#%]|$|%3f)`)

	// 6. 弱图片路径信号（字段名里带 img/image/photo/pic 即可）+ 不透明标识结尾
	reImageHint   = regexp.MustCompile(`(?i)(img|image|photo|pic)`)
	reNumericTail = regexp.MustCompile(`/\d+$`)
	reHashTail    = regexp.MustCompile(`(?i)/[0-9a-f]{16,}$`)

	// 7. 日期型片段（YYYY/MM/DD 或长数字串）+ 短扩展名结尾
	reDateSegment = regexp.MustCompile(`(/20\d{2}/\d{1,2}(/\d{1,2})?/|/\d{8,}[/_-])`)
	reShortExt    = regexp.MustCompile(`(?i)\.[a-z0-9]{2,5}$`)
)

// IsLikelyImage 判断 URL 是否大概率指向一张图片。
// 只是下载前的预过滤：误判的 URL 会被后续的字节嗅探纠正，
// 漏判的代价只是该链接原样保留。
func IsLikelyImage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	// 1. 扩展名结尾
	if reExtTail.MatchString(rawURL) {
		return true
	}

	// 2. 格式参数
	if reFormatParam.MatchString(rawURL) {
		return true
	}

	path := pathOf(rawURL)

	// 3. 图床路径片段
	if reHostingSegment.MatchString(path) {
		return true
	}

	// 4. CDN 资源片段
	if reCDNSegment.MatchString(path) {
		return true
	}

	// 5. 代理/嵌套 URL，且内嵌部分长得像图片
	if nested, ok := nestedPart(rawURL); ok && reNestedImage.MatchString(nested) {
		return true
	}

	// 6. 路径带图片字样，且以纯数字 id 或哈希样标识结尾
	if reImageHint.MatchString(path) &&
		(reNumericTail.MatchString(path) || reHashTail.MatchString(path)) {
		return true
	}

	// 7. 日期片段 + 短扩展名
	if reDateSegment.MatchString(path) && reShortExt.MatchString(path) {
		return true
	}

	return false
}

// pathOf 提取 URL 的路径部分；解析失败时退回去掉查询串的原始字符串。
func pathOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return u.Path
	}
	clean := rawURL
	if idx := strings.IndexAny(clean, "?#"); idx != -1 {
		clean = clean[:idx]
	}
	return clean
}

// nestedPart 提取代理 URL 中内嵌的子 URL / token 部分。
func nestedPart(rawURL string) (string, bool) {
	if !reNestedURL.MatchString(rawURL) {
		return "", false
	}

	// 裸的内嵌 URL：跳过开头的 scheme 再找第二个 http
	if idx := strings.Index(rawURL[8:], "http"); idx != -1 {
		return rawURL[8+idx:], true
	}

	// 编码或参数形式：取第一个 = 之后的内容
	if idx := strings.Index(rawURL, "="); idx != -1 {
		part := rawURL[idx+1:]
		if decoded, err := url.QueryUnescape(part); err == nil {
			return decoded, true
		}
		return part, true
	}

	return rawURL, true
}

// ExtFromURL 从 URL 中提取图片扩展名（小写、不含点）。
// 识别不出时返回空串。
func ExtFromURL(rawURL string) string {
	m := reExtTail.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
