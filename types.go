package main

// HTTP API 响应类型

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// MCP 相关类型（用于内部转换）

// MCPToolResult MCP 工具结果（内部使用）
type MCPToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent MCP 内容（内部使用）
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ProcessNoteRequest 处理单篇笔记的请求
type ProcessNoteRequest struct {
	// Note 笔记的相对路径（vault 根目录下）
	Note string `json:"note" binding:"required"`
	// Webhook 可选：处理完成后回调的 URL
	Webhook string `json:"webhook,omitempty"`
}

// ProcessAllRequest 批量处理全部笔记的请求（异步模式）
type ProcessAllRequest struct {
	// Webhook 必填：批量处理耗时较长，结果通过 webhook 通知
	Webhook string `json:"webhook" binding:"required"`
}

// PasteRequest 粘贴内容处理请求
type PasteRequest struct {
	Text string `json:"text" binding:"required"`
}
