package service

import (
	"time"

	"asset-forge/app/config"
	"asset-forge/app/logger"

	"resty.dev/v3"
)

// ImportSummary 一次导入批次的结果摘要
type ImportSummary struct {
	Imported   int       `json:"imported"`
	Failed     int       `json:"failed"`
	Cancelled  bool      `json:"cancelled"`
	Failures   []string  `json:"failures,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// WebhookNotifier 导入完成通知
//
// 配置了 webhook 地址时，每个导入批次结束后把摘要 POST 出去，
// 编辑器之外的工具（CI、资产看板）可以据此联动。失败只记日志。
type WebhookNotifier struct {
	url     string
	timeout time.Duration
	log     *logger.Logger
}

// NewWebhookNotifier 创建通知器，未配置地址时返回 nil
func NewWebhookNotifier(cfg *config.Config, log *logger.Logger) *WebhookNotifier {
	if cfg.Webhook.URL == "" {
		return nil
	}
	timeout := time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:     cfg.Webhook.URL,
		timeout: timeout,
		log:     log,
	}
}

// NotifyImportFinished 发送导入摘要
func (n *WebhookNotifier) NotifyImportFinished(summary ImportSummary) {
	client := resty.New().SetTimeout(n.timeout)
	defer client.Close()

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(summary).
		Post(n.url)
	if err != nil {
		n.log.Warnf("发送导入通知失败: %v", err)
		return
	}
	if resp.IsError() {
		n.log.Warnf("导入通知返回错误状态: %s", resp.Status())
	}
}
