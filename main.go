package main

import (
	"flag"
	"os"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/localimages-mcp/configs"
	"github.com/xpzouying/localimages-mcp/vault"
)

func main() {
	var (
		vaultPath    string
		settingsPath string
		port         string
	)
	flag.StringVar(&vaultPath, "vault", "", "笔记 vault 根目录")
	flag.StringVar(&settingsPath, "settings", "", "配置文件路径（默认 settings.json）")
	flag.StringVar(&port, "port", ":18070", "端口")
	flag.Parse()

	if len(vaultPath) == 0 {
		vaultPath = os.Getenv("VAULT_PATH")
	}
	if len(vaultPath) == 0 {
		vaultPath = "."
	}
	if len(settingsPath) == 0 {
		settingsPath = configs.GetSettingsFilePath()
	}

	store := configs.NewLocalSettings(settingsPath)
	settings, err := store.Load()
	if err != nil {
		logrus.Warnf("加载配置失败，使用默认配置: %v", err)
	}

	if level, err := logrus.ParseLevel(settings.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	storage := vault.NewLocalVault(vaultPath)
	bus := EventBus.New()

	// 初始化服务
	imageService := NewLocalImageService(storage, store,
		bus, logrus.WithField("component", "service"))

	// 笔记变更监听（PollIntervalSec 为 0 时关闭）
	watcher := NewNoteWatcher(vaultPath,
		time.Duration(settings.PollIntervalSec)*time.Second,
		bus, logrus.WithField("component", "watcher"))

	// 创建并启动应用服务器
	appServer := NewAppServer(imageService, watcher)
	if err := appServer.Start(port); err != nil {
		logrus.Fatalf("failed to run server: %v", err)
	}
}
