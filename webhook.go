package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/localimages-mcp/localimage"
)

// NotifyPayload webhook 通知的数据结构
type NotifyPayload struct {
	Note      string                   `json:"note,omitempty"`      // 单篇处理时的笔记路径
	Stats     localimage.StatsSnapshot `json:"stats"`               // 处理统计
	Processed int                      `json:"processed,omitempty"` // 批量处理时的笔记数
	Event     string                   `json:"event"`               // 事件类型（process_note/process_all）
	Error     string                   `json:"error,omitempty"`     // 失败时的错误信息
	Timestamp int64                    `json:"timestamp"`           // 发送时间戳
}

// NotifySender 处理结果通知发送器
type NotifySender struct {
	client  *http.Client
	timeout time.Duration
	log     *logrus.Entry
}

// NewNotifySender 创建通知发送器
func NewNotifySender(log *logrus.Entry) *NotifySender {
	return &NotifySender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		timeout: 10 * time.Second,
		log:     log,
	}
}

// SendAsync 异步发送处理结果通知。
// 不阻塞主流程，失败只记日志，自带 panic 恢复。
func (n *NotifySender) SendAsync(webhookURL string, payload NotifyPayload) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.log.Errorf("webhook panic: %v", r)
			}
		}()

		if err := n.send(webhookURL, payload); err != nil {
			n.log.Errorf("webhook 发送失败 [%s]: %v", webhookURL, err)
		} else {
			n.log.Infof("webhook 发送成功 [%s]", webhookURL)
		}
	}()
}

// send 实际发送通知（同步）
func (n *NotifySender) send(webhookURL string, payload NotifyPayload) error {
	if err := n.validateURL(webhookURL); err != nil {
		return fmt.Errorf("无效的 webhook URL: %w", err)
	}

	payload.Timestamp = time.Now().Unix()

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化 payload 失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "localimages-mcp-webhook/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook 返回非成功状态码: %d", resp.StatusCode)
	}

	return nil
}

// validateURL 验证 webhook URL 是否有效
func (n *NotifySender) validateURL(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL 不能为空")
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("URL 格式错误: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("只支持 http 和 https 协议")
	}

	if u.Host == "" {
		return fmt.Errorf("URL 必须包含 host")
	}

	return nil
}
