package imageurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLikelyImage(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "扩展名结尾", url: "https://example.com/a/photo.jpg", want: true},
		{name: "扩展名后跟查询串", url: "https://example.com/a/photo.png?size=large", want: true},
		{name: "扩展名后跟锚点", url: "https://example.com/a/pic.gif#frag", want: true},
		{name: "大写扩展名", url: "https://example.com/a/PHOTO.JPEG", want: true},
		{name: "webp扩展名", url: "https://example.com/x.webp", want: true},
		{name: "format参数", url: "https://example.com/view?id=1&format=png", want: true},
		{name: "type参数", url: "https://example.com/view?type=jpeg", want: true},
		{name: "fmt缩写参数", url: "https://example.com/get?fmt=webp", want: true},
		{name: "图床路径片段", url: "https://cdn.example.com/images/abcd", want: true},
		{name: "uploads片段", url: "https://example.com/uploads/2f3a", want: true},
		{name: "cdn资源片段", url: "https://example.com/cdn/v2/abcd", want: true},
		{name: "img资源片段", url: "https://cdn.example.org/img/photo123.jpg", want: true},
		{name: "编码的嵌套图片URL", url: "https://proxy.example.com/fetch?url=https%3A%2F%2Fa.com%2Fb.png", want: true},
		{name: "裸的嵌套图片URL", url: "https://proxy.example.com/?u=https://a.com/b.jpg", want: true},
		{name: "嵌套的非图片URL", url: "https://proxy.example.com/fetch?url=https%3A%2F%2Fa.com%2Fpage.html", want: false},
		{name: "图片字样加数字id", url: "https://example.com/imgstore/10293", want: true},
		{name: "图片字样加哈希标识", url: "https://example.com/photoset/0123456789abcdef0123", want: true},
		{name: "日期片段加短扩展名", url: "https://blog.example.com/2023/07/15/cover.webx", want: true},
		{name: "普通网页链接", url: "https://example.com/about", want: false},
		{name: "html页面", url: "https://example.com/posts/hello.html", want: false},
		{name: "非http协议", url: "ftp://example.com/a.png", want: false},
		{name: "相对路径", url: "images/local.png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyImage(tt.url), tt.url)
		})
	}
}

func TestExtFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/a.png", want: "png"},
		{url: "https://example.com/a.JPG?x=1", want: "jpg"},
		{url: "https://example.com/a.jpeg#top", want: "jpeg"},
		{url: "https://example.com/a.awebp", want: "awebp"},
		{url: "https://example.com/page", want: ""},
		{url: "https://example.com/archive.html", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtFromURL(tt.url), tt.url)
	}
}

func TestMatchesIgnoredDomain(t *testing.T) {
	domains := ParseIgnoredDomains("example.com, Private.Org ,")

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "精确匹配", url: "https://example.com/a.png", want: true},
		{name: "子域名匹配", url: "https://sub.example.com/a.png", want: true},
		{name: "多级子域名匹配", url: "https://a.b.example.com/x.jpg", want: true},
		{name: "前缀相似不匹配", url: "https://notexample.com/a.png", want: false},
		{name: "大小写不敏感", url: "https://cdn.PRIVATE.org/a.png", want: true},
		{name: "其他域名", url: "https://other.net/a.png", want: false},
		{name: "畸形URL返回false", url: "http://%zz/a.png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesIgnoredDomain(tt.url, domains))
		})
	}
}

func TestParseIgnoredDomains(t *testing.T) {
	assert.Nil(t, ParseIgnoredDomains(""))
	assert.Equal(t, []string{"a.com", "b.org"}, ParseIgnoredDomains(" a.com ,B.ORG"))
}
