package configs

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Settinger 配置的持久化入口
type Settinger interface {
	Load() (Settings, error)
	Save(s Settings) error
}

type localSettings struct {
	path string
}

// NewLocalSettings 创建文件持久化的配置存储。
func NewLocalSettings(path string) Settinger {
	if path == "" {
		panic("settings path is required")
	}

	return &localSettings{path: path}
}

// Load 从文件加载配置。文件不存在时返回默认配置，不算错误。
func (l *localSettings) Load() (Settings, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), errors.Wrap(err, "failed to read settings file")
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), errors.Wrap(err, "failed to parse settings file")
	}

	return s.Validate(), nil
}

// Save 把配置写回文件。
func (l *localSettings) Save(s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}

	return nil
}

// GetSettingsFilePath 获取配置文件路径。
// 优先使用环境变量 SETTINGS_PATH，否则用当前目录下的 settings.json。
func GetSettingsFilePath() string {
	if path := os.Getenv("SETTINGS_PATH"); path != "" {
		return path
	}
	return "settings.json"
}
