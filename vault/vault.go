package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Storage 宿主提供的最小存储能力。
// 核心流程只创建目录和文件，从不删除或移动。
type Storage interface {
	Exists(path string) bool
	CreateFolder(path string) error
	ReadText(path string) (string, error)
	WriteText(path string, content string) error
	WriteBinary(path string, data []byte) error
}

// localVault 以本地目录为根的存储实现
type localVault struct {
	root string
}

// NewLocalVault 创建以 root 目录为根的本地存储。
func NewLocalVault(root string) Storage {
	if root == "" {
		panic("vault root is required")
	}

	return &localVault{root: root}
}

// abs 把相对路径映射到根目录下的绝对路径。
// 路径来自网络侧（API / MCP 工具），必须关在根目录里：
// 解析后落在根目录之外的路径（../ 之类）一律拒绝。
func (v *localVault) abs(path string) (string, error) {
	joined := filepath.Join(v.root, filepath.FromSlash(path))

	rel, err := filepath.Rel(v.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("path escapes vault root: %s", path)
	}

	return joined, nil
}

// Exists 判断路径是否已存在（文件或目录都算）。
func (v *localVault) Exists(path string) bool {
	p, err := v.abs(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// CreateFolder 创建目录，缺失的中间层级一并补齐。
func (v *localVault) CreateFolder(path string) error {
	p, err := v.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return errors.Wrapf(err, "failed to create folder %s", path)
	}
	return nil
}

// ReadText 读取文本文件内容。
func (v *localVault) ReadText(path string) (string, error) {
	p, err := v.abs(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return string(data), nil
}

// WriteText 写入文本文件。
func (v *localVault) WriteText(path string, content string) error {
	p, err := v.abs(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// WriteBinary 写入二进制文件。
func (v *localVault) WriteBinary(path string, data []byte) error {
	p, err := v.abs(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Lister 可以枚举笔记文档的存储。批量处理用，不属于核心接口。
type Lister interface {
	ListNotes() ([]string, error)
}

// ListNotes 递归枚举根目录下所有 Markdown 笔记，返回相对路径（/ 分隔）。
func (v *localVault) ListNotes() ([]string, error) {
	var notes []string

	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// 隐藏目录（.git 之类）不进入，根目录本身除外
			if p != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".md") {
			rel, err := filepath.Rel(v.root, p)
			if err != nil {
				return err
			}
			notes = append(notes, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk vault")
	}

	return notes, nil
}
