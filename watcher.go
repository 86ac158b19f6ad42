package main

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"
)

// NoteWatcher 轮询 vault 目录，把笔记的新建/变更发布到事件总线。
// 宿主侧的事件适配器，不包含任何处理逻辑。
type NoteWatcher struct {
	root     string
	interval time.Duration
	bus      EventBus.Bus
	log      *logrus.Entry

	seen map[string]time.Time
	stop chan struct{}
}

// NewNoteWatcher 创建轮询监听器。interval ≤ 0 时 Start 是 no-op。
func NewNoteWatcher(root string, interval time.Duration, bus EventBus.Bus, log *logrus.Entry) *NoteWatcher {
	return &NoteWatcher{
		root:     root,
		interval: interval,
		bus:      bus,
		log:      log,
		seen:     make(map[string]time.Time),
		stop:     make(chan struct{}),
	}
}

// Start 启动后台轮询。第一轮只记录基线，不发布事件。
func (w *NoteWatcher) Start() {
	if w.interval <= 0 {
		return
	}

	w.scan(false)

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.scan(true)
			case <-w.stop:
				return
			}
		}
	}()

	w.log.Infof("笔记监听已启动，轮询间隔 %s", w.interval)
}

// Stop 停止轮询。
func (w *NoteWatcher) Stop() {
	close(w.stop)
}

// scan 扫一遍 vault 下的所有 Markdown 文件，对比上次的修改时间。
func (w *NoteWatcher) scan(publish bool) {
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // 单个条目读不到不影响整轮扫描
		}
		if d.IsDir() {
			if p != w.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		prev, known := w.seen[rel]
		w.seen[rel] = info.ModTime()

		if !publish {
			return nil
		}
		if !known {
			w.log.Debugf("发现新笔记: %s", rel)
			w.bus.Publish(TopicNoteCreated, rel)
		} else if info.ModTime().After(prev) {
			w.log.Debugf("笔记有变更: %s", rel)
			w.bus.Publish(TopicNoteChanged, rel)
		}
		return nil
	})
	if err != nil {
		w.log.Warnf("扫描 vault 失败: %v", err)
	}
}
