package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/localimages-mcp/configs"
)

// respondError 返回错误响应
func respondError(c *gin.Context, statusCode int, code, message string, details any) {
	response := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	logrus.Errorf("%s %s %d: %s", c.Request.Method, c.Request.URL.Path, statusCode, message)

	c.JSON(statusCode, response)
}

// respondSuccess 返回成功响应
func respondSuccess(c *gin.Context, data any, message string) {
	response := SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	}

	logrus.Infof("%s %s %d", c.Request.Method, c.Request.URL.Path, http.StatusOK)

	c.JSON(http.StatusOK, response)
}

// getSettingsHandler 获取当前配置
func (s *AppServer) getSettingsHandler(c *gin.Context) {
	settings, err := s.imageService.Settings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "GET_SETTINGS_FAILED",
			"获取配置失败", err.Error())
		return
	}

	respondSuccess(c, settings, "获取配置成功")
}

// updateSettingsHandler 更新配置（整体替换，缺省字段按零值处理前先套默认值）
func (s *AppServer) updateSettingsHandler(c *gin.Context) {
	settings := configs.DefaultSettings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"请求参数错误", err.Error())
		return
	}

	saved, err := s.imageService.UpdateSettings(settings)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_SETTINGS_FAILED",
			"保存配置失败", err.Error())
		return
	}

	respondSuccess(c, saved, "配置已保存")
}

// processNoteHandler 处理单篇笔记（同步模式）
//
// 处理完成后直接返回统计；可选的 webhook 参数会额外收到一份结果通知。
func (s *AppServer) processNoteHandler(c *gin.Context) {
	var req ProcessNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"请求参数错误", err.Error())
		return
	}

	stats, err := s.imageService.ProcessNote(c.Request.Context(), req.Note)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "PROCESS_NOTE_FAILED",
			"处理笔记失败", err.Error())
		return
	}

	if req.Webhook != "" {
		s.notifySender.SendAsync(req.Webhook, NotifyPayload{
			Note:  req.Note,
			Stats: stats,
			Event: "process_note",
		})
	}

	respondSuccess(c, gin.H{
		"note":  req.Note,
		"stats": stats,
	}, "笔记处理完成")
}

// processAllHandler 批量处理全部笔记（异步模式）
//
// 流程：
//  1. 立即返回 202 Accepted，告知客户端请求已接受
//  2. 后台顺序处理每一篇笔记
//  3. 完成后通过 webhook 通知汇总结果
//
// 注意：
//   - 必须提供 webhook 参数，否则无法获知处理结果
//   - 批量处理可能耗时较长，异步处理避免客户端超时
func (s *AppServer) processAllHandler(c *gin.Context) {
	var req ProcessAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"请求参数错误", err.Error())
		return
	}

	// 立即返回 202 Accepted
	c.JSON(http.StatusAccepted, SuccessResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "accepted",
			"message": "批量处理请求已接受，正在后台处理",
			"webhook": req.Webhook,
		},
		Message: "请求已接受，处理结果将通过 webhook 通知",
	})

	// 使用 channel 确保 goroutine 真正启动
	started := make(chan struct{})

	go func() {
		// 创建独立的 context，2 小时超时（足够跑完一个大 vault）
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		close(started)

		logrus.Infof("开始批量处理全部笔记，webhook: %s", req.Webhook)

		stats, processed, err := s.imageService.ProcessAllNotes(ctx)
		payload := NotifyPayload{
			Stats:     stats,
			Processed: processed,
			Event:     "process_all",
		}
		if err != nil {
			logrus.Errorf("批量处理失败: %v", err)
			payload.Error = err.Error()
		}

		s.notifySender.SendAsync(req.Webhook, payload)
	}()

	// 等待异步任务真正启动（最多等待 100ms）
	select {
	case <-started:
		// 任务已启动
	case <-time.After(100 * time.Millisecond):
		logrus.Warn("等待异步任务启动超时")
	}
}

// pasteHandler 处理粘贴的文本内容
//
// 对应宿主的"内容粘贴"事件：重写文本里的远程图片引用并返回新文本，
// 不直接写任何笔记文件。
func (s *AppServer) pasteHandler(c *gin.Context) {
	var req PasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"请求参数错误", err.Error())
		return
	}

	text, stats, err := s.imageService.ProcessPasted(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "PROCESS_PASTE_FAILED",
			"处理粘贴内容失败", err.Error())
		return
	}

	respondSuccess(c, gin.H{
		"text":  text,
		"stats": stats,
	}, "粘贴内容处理完成")
}

// healthHandler 健康检查
func healthHandler(c *gin.Context) {
	respondSuccess(c, map[string]any{
		"status":  "healthy",
		"service": "localimages-mcp",
	}, "服务正常")
}
