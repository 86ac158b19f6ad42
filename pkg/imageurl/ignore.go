package imageurl

import (
	"net/url"
	"strings"
)

// ParseIgnoredDomains 解析逗号分隔的忽略域名配置。
// 空白项被丢弃，域名统一转小写。
func ParseIgnoredDomains(raw string) []string {
	var domains []string
	for _, part := range strings.Split(raw, ",") {
		d := strings.ToLower(strings.TrimSpace(part))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// MatchesIgnoredDomain 判断 URL 的 host 是否命中忽略列表。
// 精确匹配或是某个忽略域名的子域名才算命中：
// example.com 匹配 example.com 和 sub.example.com，但不匹配 notexample.com。
// URL 解析失败时返回 false，让后续流程自行降级。
func MatchesIgnoredDomain(rawURL string, domains []string) bool {
	if len(domains) == 0 {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
