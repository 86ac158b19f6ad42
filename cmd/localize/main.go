package main

// 一次性处理工具：不起服务，直接本地化一篇笔记或整个 vault。
//
// 用法：
//
//	localize -vault ~/notes                # 处理全部笔记
//	localize -vault ~/notes -note a/b.md   # 只处理一篇

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/localimages-mcp/configs"
	"github.com/xpzouying/localimages-mcp/localimage"
	"github.com/xpzouying/localimages-mcp/vault"
)

func main() {
	var (
		vaultPath    string
		settingsPath string
		note         string
		verbose      bool
	)
	flag.StringVar(&vaultPath, "vault", ".", "笔记 vault 根目录")
	flag.StringVar(&settingsPath, "settings", "", "配置文件路径（默认 settings.json）")
	flag.StringVar(&note, "note", "", "只处理这一篇笔记（相对路径），留空处理全部")
	flag.BoolVar(&verbose, "v", false, "输出调试日志")
	flag.Parse()

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if settingsPath == "" {
		settingsPath = configs.GetSettingsFilePath()
	}

	store := configs.NewLocalSettings(settingsPath)
	settings, err := store.Load()
	if err != nil {
		logrus.Warnf("加载配置失败，使用默认配置: %v", err)
	}

	storage := vault.NewLocalVault(vaultPath)
	log := logrus.WithField("component", "localize")

	ctx := context.Background()
	stats := &localimage.Stats{}

	notes, err := targetNotes(storage, note)
	if err != nil {
		logrus.Fatalf("枚举笔记失败: %v", err)
	}

	failedNotes := 0
	for _, n := range notes {
		if err := processNote(ctx, storage, settings, stats, log, n); err != nil {
			logrus.Errorf("处理失败: %s: %v", n, err)
			failedNotes++
		}
	}

	snap := stats.Snapshot()
	fmt.Printf("处理完成: %d 篇笔记, 共 %d 张图片, 下载 %d, 失败 %d, 跳过 %d\n",
		len(notes), snap.Total, snap.Downloaded, snap.Failed, snap.Skipped)

	if failedNotes > 0 {
		os.Exit(1)
	}
}

// targetNotes 确定要处理的笔记列表。
func targetNotes(storage vault.Storage, note string) ([]string, error) {
	if note != "" {
		return []string{note}, nil
	}

	lister, ok := storage.(vault.Lister)
	if !ok {
		return nil, fmt.Errorf("storage does not support listing notes")
	}
	return lister.ListNotes()
}

// processNote 读-重写-写回一篇笔记。
func processNote(ctx context.Context, storage vault.Storage, settings configs.Settings,
	stats *localimage.Stats, log *logrus.Entry, note string) error {

	text, err := storage.ReadText(note)
	if err != nil {
		return err
	}

	p := localimage.NewProcessor(storage, settings, stats, log.WithField("note", note))
	newText, changed, err := p.ProcessText(ctx, text)
	if err != nil {
		return err
	}

	if changed {
		return storage.WriteText(note, newText)
	}
	return nil
}
