package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// MCP 工具处理函数

// errorResult 构造错误结果
func errorResult(text string) *MCPToolResult {
	return &MCPToolResult{
		Content: []MCPContent{{Type: "text", Text: text}},
		IsError: true,
	}
}

// textResult 构造文本结果
func textResult(text string) *MCPToolResult {
	return &MCPToolResult{
		Content: []MCPContent{{Type: "text", Text: text}},
	}
}

// handleProcessNote 处理单篇笔记
func (s *AppServer) handleProcessNote(ctx context.Context, note string) *MCPToolResult {
	logrus.Infof("MCP: 处理笔记 %s", note)

	if note == "" {
		return errorResult("note 参数不能为空")
	}

	stats, err := s.imageService.ProcessNote(ctx, note)
	if err != nil {
		return errorResult("处理笔记失败: " + err.Error())
	}

	return textResult(fmt.Sprintf("笔记处理完成 %s: 共 %d 张图片, 下载 %d, 失败 %d, 跳过 %d",
		note, stats.Total, stats.Downloaded, stats.Failed, stats.Skipped))
}

// handleProcessAllNotes 批量处理全部笔记
func (s *AppServer) handleProcessAllNotes(ctx context.Context) *MCPToolResult {
	logrus.Info("MCP: 批量处理全部笔记")

	stats, processed, err := s.imageService.ProcessAllNotes(ctx)
	if err != nil {
		return errorResult("批量处理失败: " + err.Error())
	}

	return textResult(fmt.Sprintf("批量处理完成: %d 篇笔记, 共 %d 张图片, 下载 %d, 失败 %d, 跳过 %d",
		processed, stats.Total, stats.Downloaded, stats.Failed, stats.Skipped))
}

// handleProcessText 处理一段文本（粘贴场景）
func (s *AppServer) handleProcessText(ctx context.Context, text string) *MCPToolResult {
	logrus.Infof("MCP: 处理文本，长度 %d", len(text))

	newText, stats, err := s.imageService.ProcessPasted(ctx, text)
	if err != nil {
		return errorResult("处理文本失败: " + err.Error())
	}

	return &MCPToolResult{
		Content: []MCPContent{
			{Type: "text", Text: newText},
			{Type: "text", Text: fmt.Sprintf("统计: 下载 %d, 失败 %d, 跳过 %d",
				stats.Downloaded, stats.Failed, stats.Skipped)},
		},
	}
}

// handleGetSettings 获取当前配置
func (s *AppServer) handleGetSettings(ctx context.Context) *MCPToolResult {
	settings, err := s.imageService.Settings()
	if err != nil {
		return errorResult("获取配置失败: " + err.Error())
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errorResult("序列化配置失败: " + err.Error())
	}

	return textResult(string(data))
}

// handleUpdateSettings 更新配置（只改动提供了的字段）
func (s *AppServer) handleUpdateSettings(ctx context.Context, args UpdateSettingsArgs) *MCPToolResult {
	settings, err := s.imageService.Settings()
	if err != nil {
		return errorResult("加载配置失败: " + err.Error())
	}

	if args.AutoDownload != nil {
		settings.AutoDownload = *args.AutoDownload
	}
	if args.PasteDownload != nil {
		settings.PasteDownload = *args.PasteDownload
	}
	if args.Folder != nil {
		settings.Folder = *args.Folder
	}
	if args.HashNames != nil {
		settings.HashNames = *args.HashNames
	}
	if args.ConvertPNGToJPEG != nil {
		settings.ConvertPNGToJPEG = *args.ConvertPNGToJPEG
	}
	if args.JPEGQuality != nil {
		settings.JPEGQuality = *args.JPEGQuality
	}
	if args.MaxRetries != nil {
		settings.MaxRetries = *args.MaxRetries
	}
	if args.TimeoutMs != nil {
		settings.TimeoutMs = *args.TimeoutMs
	}
	if args.IgnoredDomains != nil {
		settings.IgnoredDomains = *args.IgnoredDomains
	}
	if args.MaxImageWidth != nil {
		settings.MaxImageWidth = *args.MaxImageWidth
	}
	if args.PollIntervalSec != nil {
		settings.PollIntervalSec = *args.PollIntervalSec
	}
	if args.LogLevel != nil {
		settings.LogLevel = *args.LogLevel
	}

	saved, err := s.imageService.UpdateSettings(settings)
	if err != nil {
		return errorResult("保存配置失败: " + err.Error())
	}

	data, _ := json.MarshalIndent(saved, "", "  ")
	return textResult("配置已保存:\n" + string(data))
}
