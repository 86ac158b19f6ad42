package configs

// Settings 一次处理操作的配置快照。
// 快照在操作开始时取出，操作中途绝不修改；
// 设置界面（HTTP/MCP）只会产出新的快照，不会原地改动在途的那份。
type Settings struct {
	// AutoDownload 笔记变更事件触发时是否自动处理
	AutoDownload bool `json:"auto_download"`
	// PasteDownload 粘贴内容时是否处理其中的图片链接
	PasteDownload bool `json:"paste_download"`
	// Folder 图片落盘的目标目录（相对 vault 根）
	Folder string `json:"folder"`
	// HashNames true 用内容哈希命名，false 保留 URL 原名
	HashNames bool `json:"hash_names"`
	// ConvertPNGToJPEG 是否把 png 转码成 jpeg
	ConvertPNGToJPEG bool `json:"convert_png_to_jpeg"`
	// JPEGQuality 转码质量（1-100）
	JPEGQuality int `json:"jpeg_quality"`
	// MaxImageWidth 转码时的最大宽度，0 表示不缩放
	MaxImageWidth int `json:"max_image_width"`
	// MaxRetries 单张图片的最大下载尝试次数（≥1）
	MaxRetries int `json:"max_retries"`
	// TimeoutMs 单次下载尝试的超时（毫秒，>0）
	TimeoutMs int `json:"timeout_ms"`
	// IgnoredDomains 逗号分隔的忽略域名列表
	IgnoredDomains string `json:"ignored_domains"`
	// LogLevel 日志级别（debug/info/warn/error）
	LogLevel string `json:"log_level"`
	// PollIntervalSec 笔记变更轮询间隔（秒），0 表示关闭监听
	PollIntervalSec int `json:"poll_interval_sec"`
}

// DefaultSettings 返回默认配置。
func DefaultSettings() Settings {
	return Settings{
		AutoDownload:     true,
		PasteDownload:    true,
		Folder:           "attachments",
		HashNames:        true,
		ConvertPNGToJPEG: false,
		JPEGQuality:      85,
		MaxImageWidth:    0,
		MaxRetries:       3,
		TimeoutMs:        30000,
		IgnoredDomains:   "",
		LogLevel:         "info",
		PollIntervalSec:  0,
	}
}

// Validate 把越界的字段收敛回合法范围，返回修正后的副本。
func (s Settings) Validate() Settings {
	if s.JPEGQuality < 1 || s.JPEGQuality > 100 {
		s.JPEGQuality = 85
	}
	if s.MaxRetries < 1 {
		s.MaxRetries = 1
	}
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = 30000
	}
	if s.MaxImageWidth < 0 {
		s.MaxImageWidth = 0
	}
	if s.PollIntervalSec < 0 {
		s.PollIntervalSec = 0
	}
	if s.Folder == "" {
		s.Folder = "attachments"
	}
	return s
}
