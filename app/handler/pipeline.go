package handler

import (
	"net/http"
	"strconv"

	"asset-forge/app/service"

	"github.com/gin-gonic/gin"
)

// PipelineHandler 导入管道控制接口
//
// 编辑器界面每帧轮询任务快照来画任务列表和进度条，这里是
// 管道对外暴露的唯一表面。
type PipelineHandler struct {
	pipeline *service.Pipeline
}

// NewPipelineHandler 创建管道处理器
func NewPipelineHandler(p *service.Pipeline) *PipelineHandler {
	return &PipelineHandler{pipeline: p}
}

// ListTasks 返回当前任务快照
func (h *PipelineHandler) ListTasks(c *gin.Context) {
	// 默认只给界面要展示的任务，all=1 时连扫描这类后台任务也返回
	all := c.Query("all") == "1"

	infos := h.pipeline.Scheduler().Snapshot()
	if !all {
		visible := infos[:0]
		for _, info := range infos {
			if info.Visible {
				visible = append(visible, info)
			}
		}
		infos = visible
	}

	success(c, infos, "")
}

// CancelTask 取消指定任务
func (h *PipelineHandler) CancelTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, 400, "任务ID无效")
		return
	}

	if !h.pipeline.Scheduler().CancelTask(id) {
		fail(c, http.StatusNotFound, 404, "任务不存在或不可取消")
		return
	}

	success(c, nil, "已请求取消")
}

// TriggerScan 立即触发一轮扫描
func (h *PipelineHandler) TriggerScan(c *gin.Context) {
	if err := h.pipeline.TriggerScan(); err != nil {
		fail(c, http.StatusConflict, 409, err.Error())
		return
	}
	success(c, nil, "扫描已触发")
}

// ListRecords 返回导入数据库快照
func (h *PipelineHandler) ListRecords(c *gin.Context) {
	success(c, h.pipeline.Records().Snapshot(), "")
}

// Status 返回管道概况
func (h *PipelineHandler) Status(c *gin.Context) {
	success(c, gin.H{
		"records": h.pipeline.Records().Len(),
		"tasks":   h.pipeline.Scheduler().Snapshot(),
	}, "")
}
