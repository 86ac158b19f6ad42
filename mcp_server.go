package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MCP 工具参数结构体定义

// ProcessNoteArgs 处理单篇笔记的参数
type ProcessNoteArgs struct {
	Note string `json:"note" jsonschema:"笔记的相对路径（vault 根目录下），如 daily/2024-01-01.md"`
}

// PasteArgs 处理粘贴内容的参数
type PasteArgs struct {
	Text string `json:"text" jsonschema:"要处理的文本内容，其中的远程图片链接会被下载并替换为本地路径"`
}

// UpdateSettingsArgs 更新配置的参数（只更新提供了的字段）
type UpdateSettingsArgs struct {
	AutoDownload     *bool   `json:"auto_download,omitempty" jsonschema:"笔记变更时是否自动处理"`
	PasteDownload    *bool   `json:"paste_download,omitempty" jsonschema:"粘贴内容时是否处理图片链接"`
	Folder           *string `json:"folder,omitempty" jsonschema:"图片保存目录（相对 vault 根），默认 attachments"`
	HashNames        *bool   `json:"hash_names,omitempty" jsonschema:"true 用内容哈希命名，false 保留原始文件名"`
	ConvertPNGToJPEG *bool   `json:"convert_png_to_jpeg,omitempty" jsonschema:"是否把 png 转码为 jpeg"`
	JPEGQuality      *int    `json:"jpeg_quality,omitempty" jsonschema:"jpeg 转码质量（1-100），默认 85"`
	MaxRetries       *int    `json:"max_retries,omitempty" jsonschema:"单张图片的最大下载尝试次数，默认 3"`
	TimeoutMs        *int    `json:"timeout_ms,omitempty" jsonschema:"单次下载尝试超时（毫秒），默认 30000"`
	IgnoredDomains   *string `json:"ignored_domains,omitempty" jsonschema:"逗号分隔的忽略域名列表，命中的链接不下载"`
	MaxImageWidth    *int    `json:"max_image_width,omitempty" jsonschema:"图片最大宽度（像素），超出等比缩小，0 表示不缩放"`
	PollIntervalSec  *int    `json:"poll_interval_sec,omitempty" jsonschema:"笔记变更轮询间隔（秒），0 表示关闭轮询"`
	LogLevel         *string `json:"log_level,omitempty" jsonschema:"日志级别：debug/info/warn/error"`
}

// InitMCPServer 初始化 MCP Server
func InitMCPServer(appServer *AppServer) *mcp.Server {
	// 创建 MCP Server
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "localimages-mcp",
			Version: "1.0.0",
		},
		nil,
	)

	// 注册所有工具
	registerTools(server, appServer)

	logrus.Info("MCP Server initialized with official SDK")

	return server
}

// registerTools 注册所有 MCP 工具
func registerTools(server *mcp.Server, appServer *AppServer) {
	// 工具 1: 处理单篇笔记
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "process_note",
			Description: "下载一篇笔记里引用的远程图片到本地，并把引用改写为本地路径",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args ProcessNoteArgs) (*mcp.CallToolResult, any, error) {
			result := appServer.handleProcessNote(ctx, args.Note)
			return convertToMCPResult(result), nil, nil
		},
	)

	// 工具 2: 批量处理全部笔记
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "process_all_notes",
			Description: "顺序处理 vault 里的全部笔记，下载远程图片并本地化引用，返回汇总统计",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
			result := appServer.handleProcessAllNotes(ctx)
			return convertToMCPResult(result), nil, nil
		},
	)

	// 工具 3: 处理一段文本（粘贴场景）
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "process_text",
			Description: "处理一段文本里的远程图片链接（粘贴场景），返回改写后的文本",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args PasteArgs) (*mcp.CallToolResult, any, error) {
			result := appServer.handleProcessText(ctx, args.Text)
			return convertToMCPResult(result), nil, nil
		},
	)

	// 工具 4: 获取配置
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_settings",
			Description: "获取当前的图片本地化配置",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
			result := appServer.handleGetSettings(ctx)
			return convertToMCPResult(result), nil, nil
		},
	)

	// 工具 5: 更新配置
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "update_settings",
			Description: "更新图片本地化配置（只改动提供了的字段）",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args UpdateSettingsArgs) (*mcp.CallToolResult, any, error) {
			result := appServer.handleUpdateSettings(ctx, args)
			return convertToMCPResult(result), nil, nil
		},
	)

	logrus.Infof("Registered %d MCP tools", 5)
}

// convertToMCPResult 将自定义的 MCPToolResult 转换为官方 SDK 的格式
func convertToMCPResult(result *MCPToolResult) *mcp.CallToolResult {
	var contents []mcp.Content
	for _, c := range result.Content {
		contents = append(contents, &mcp.TextContent{Text: c.Text})
	}

	return &mcp.CallToolResult{
		Content: contents,
		IsError: result.IsError,
	}
}
