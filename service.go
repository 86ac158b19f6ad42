package main

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/localimages-mcp/configs"
	"github.com/xpzouying/localimages-mcp/localimage"
	"github.com/xpzouying/localimages-mcp/vault"
)

// 事件总线主题：宿主通知事件
const (
	TopicNoteChanged = "note:changed"
	TopicNoteCreated = "note:created"
	TopicProgress    = "process:progress"
)

// LocalImageService 笔记图片本地化服务。
// 把 vault 存储、配置存储和文档重写器串起来，
// 对外提供 单篇处理 / 全量处理 / 粘贴处理 三个操作。
type LocalImageService struct {
	storage vault.Storage
	lister  vault.Lister
	store   configs.Settinger
	bus     EventBus.Bus
	log     *logrus.Entry
}

// NewLocalImageService 创建服务实例。
func NewLocalImageService(storage vault.Storage, store configs.Settinger, bus EventBus.Bus, log *logrus.Entry) *LocalImageService {
	svc := &LocalImageService{
		storage: storage,
		store:   store,
		bus:     bus,
		log:     log,
	}
	if lister, ok := storage.(vault.Lister); ok {
		svc.lister = lister
	}

	// 订阅宿主通知事件：笔记变更/新建时按配置自动处理
	if bus != nil {
		_ = bus.SubscribeAsync(TopicNoteChanged, svc.onNoteEvent, false)
		_ = bus.SubscribeAsync(TopicNoteCreated, svc.onNoteEvent, false)
	}

	return svc
}

// onNoteEvent 宿主事件回调：AutoDownload 打开时处理变更的笔记。
func (s *LocalImageService) onNoteEvent(note string) {
	settings, err := s.store.Load()
	if err != nil {
		s.log.Warnf("加载配置失败，跳过自动处理: %v", err)
		return
	}
	if !settings.AutoDownload {
		return
	}

	if _, err := s.ProcessNote(context.Background(), note); err != nil {
		s.log.Warnf("自动处理笔记失败: %s: %v", note, err)
	}
}

// Settings 取当前配置。
func (s *LocalImageService) Settings() (configs.Settings, error) {
	return s.store.Load()
}

// UpdateSettings 校验并持久化新配置快照。
// 在途的处理操作仍然使用各自开始时取的旧快照。
func (s *LocalImageService) UpdateSettings(settings configs.Settings) (configs.Settings, error) {
	settings = settings.Validate()
	if err := s.store.Save(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// ProcessNote 处理单篇笔记：读取、重写、有改动才写回。
func (s *LocalImageService) ProcessNote(ctx context.Context, note string) (localimage.StatsSnapshot, error) {
	settings, err := s.store.Load()
	if err != nil {
		return localimage.StatsSnapshot{}, err
	}

	stats := &localimage.Stats{}
	if err := s.processOne(ctx, note, settings, stats); err != nil {
		return stats.Snapshot(), err
	}

	snap := stats.Snapshot()
	s.log.Infof("笔记处理完成 %s: 下载 %d, 失败 %d, 跳过 %d",
		shortPath(note), snap.Downloaded, snap.Failed, snap.Skipped)
	return snap, nil
}

// ProcessAllNotes 顺序处理 vault 里的全部笔记。
// 严格一篇处理完再处理下一篇，控制峰值网络并发；
// 单篇出错只记日志不中断，每 10 篇汇报一次进度。
func (s *LocalImageService) ProcessAllNotes(ctx context.Context) (localimage.StatsSnapshot, int, error) {
	if s.lister == nil {
		return localimage.StatsSnapshot{}, 0, errors.New("storage does not support listing notes")
	}

	settings, err := s.store.Load()
	if err != nil {
		return localimage.StatsSnapshot{}, 0, err
	}

	notes, err := s.lister.ListNotes()
	if err != nil {
		return localimage.StatsSnapshot{}, 0, err
	}

	// 整批共享一个统计对象
	stats := &localimage.Stats{}
	processed := 0
	for _, note := range notes {
		select {
		case <-ctx.Done():
			return stats.Snapshot(), processed, ctx.Err()
		default:
		}

		if err := s.processOne(ctx, note, settings, stats); err != nil {
			s.log.Warnf("处理笔记失败，继续下一篇: %s: %v", shortPath(note), err)
		}
		processed++

		if processed%10 == 0 {
			s.log.Infof("批量处理进度: %d/%d", processed, len(notes))
			if s.bus != nil {
				s.bus.Publish(TopicProgress, processed, len(notes))
			}
		}
	}

	snap := stats.Snapshot()
	s.log.Infof("批量处理完成: %d 篇笔记, 下载 %d, 失败 %d, 跳过 %d",
		processed, snap.Downloaded, snap.Failed, snap.Skipped)
	return snap, processed, nil
}

// ProcessPasted 处理粘贴进来的文本，返回重写后的文本。
// 不落盘，写回由宿主（编辑器侧）完成。
func (s *LocalImageService) ProcessPasted(ctx context.Context, text string) (string, localimage.StatsSnapshot, error) {
	settings, err := s.store.Load()
	if err != nil {
		return text, localimage.StatsSnapshot{}, err
	}
	if !settings.PasteDownload {
		return text, localimage.StatsSnapshot{}, nil
	}

	stats := &localimage.Stats{}
	p := localimage.NewProcessor(s.storage, settings, stats, s.log.WithField("op", "paste"))
	newText, _, err := p.ProcessText(ctx, text)
	if err != nil {
		return text, stats.Snapshot(), err
	}

	return newText, stats.Snapshot(), nil
}

// processOne 读-重写-写回一篇笔记，统计写入共享的 stats。
func (s *LocalImageService) processOne(ctx context.Context, note string, settings configs.Settings, stats *localimage.Stats) error {
	text, err := s.storage.ReadText(note)
	if err != nil {
		return errors.Wrapf(err, "failed to read note %s", note)
	}

	p := localimage.NewProcessor(s.storage, settings, stats, s.log.WithField("note", shortPath(note)))
	newText, changed, err := p.ProcessText(ctx, text)
	if err != nil {
		return err
	}

	if changed {
		if err := s.storage.WriteText(note, newText); err != nil {
			return errors.Wrapf(err, "failed to write note %s", note)
		}
	}

	return nil
}

// shortPath 把过长的路径按显示宽度截断，日志里不刷屏。
func shortPath(p string) string {
	const maxWidth = 48
	w := runewidth.StringWidth(p)
	if w <= maxWidth {
		return p
	}
	return runewidth.TruncateLeft(p, w-maxWidth, "…")
}
