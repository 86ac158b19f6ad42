package localimage

import (
	"regexp"
	"sort"
)

// imageRef 文档中定位到的一处图片引用。
// 扫描时创建，替换完成即丢弃，从不持久化。
type imageRef struct {
	start int    // 匹配区间起点（字节偏移）
	end   int    // 匹配区间终点
	url   string // 远程 URL
	alt   string // alt 文本（HTML 形式从 alt 属性提取，缺省为空）
	raw   string // 原始匹配文本，失败时原样保留
}

// 两种支持的图片语法。这里只做模式匹配，不是完整的 Markdown/HTML 解析。
var (
	reMarkdownImage = regexp.MustCompile(`!\[([^\[\]]*)\]\((https?://[^\s()]+)\)`)
	reHTMLImage     = regexp.MustCompile(`(?i)<img[^>]*?\bsrc\s*=\s*["'](https?://[^"']+)["'][^>]*?/?>`)
	reHTMLAlt       = regexp.MustCompile(`(?i)\balt\s*=\s*["']([^"']*)["']`)
)

// scanImageRefs 对文档做两遍独立扫描（Markdown 形式和 HTML 形式），
// 合并后按出现位置排序。区间重叠时保留先出现的那个。
func scanImageRefs(text string) []imageRef {
	var refs []imageRef

	for _, m := range reMarkdownImage.FindAllStringSubmatchIndex(text, -1) {
		refs = append(refs, imageRef{
			start: m[0],
			end:   m[1],
			alt:   text[m[2]:m[3]],
			url:   text[m[4]:m[5]],
			raw:   text[m[0]:m[1]],
		})
	}

	for _, m := range reHTMLImage.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		refs = append(refs, imageRef{
			start: m[0],
			end:   m[1],
			alt:   extractAlt(raw),
			url:   text[m[2]:m[3]],
			raw:   raw,
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].start < refs[j].start })

	// 去掉重叠区间，避免替换时互相吞掉
	out := refs[:0]
	lastEnd := -1
	for _, r := range refs {
		if r.start < lastEnd {
			continue
		}
		out = append(out, r)
		lastEnd = r.end
	}

	return out
}

// extractAlt 从 img 标签原文中提取 alt 属性，没有则返回空串。
func extractAlt(tag string) string {
	m := reHTMLAlt.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	return m[1]
}
