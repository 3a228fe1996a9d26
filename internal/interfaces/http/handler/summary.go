package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kakaosum/backend/internal/application/ingest"
	"github.com/kakaosum/backend/internal/application/summary"
	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
	"github.com/kakaosum/backend/internal/interfaces/http/response"
)

// SummaryHandler 总结处理器
type SummaryHandler struct {
	rooms     storage.RoomRepository
	summaries storage.SummaryRepository
	docs      *docstore.Store
	service   *summary.Service
	jobs      *summary.JobManager
	staleness *ingest.StalenessTracker
}

// NewSummaryHandler 创建总结处理器
func NewSummaryHandler(
	rooms storage.RoomRepository,
	summaries storage.SummaryRepository,
	docs *docstore.Store,
	service *summary.Service,
	jobs *summary.JobManager,
	staleness *ingest.StalenessTracker,
) *SummaryHandler {
	return &SummaryHandler{
		rooms:     rooms,
		summaries: summaries,
		docs:      docs,
		service:   service,
		jobs:      jobs,
		staleness: staleness,
	}
}

// List 房间的全部总结记录
func (h *SummaryHandler) List(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	summaries, err := h.summaries.FindByRoom(room.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 300002, "查询总结失败: "+err.Error())
		return
	}
	response.Success(c, summaries)
}

// Get 指定日期的总结全文
func (h *SummaryHandler) Get(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}
	date := c.Param("date")

	content, err := h.docs.LoadSummary(room.Name, date)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 300003, "读取总结文件失败: "+err.Error())
		return
	}
	if content == "" {
		response.Error(c, http.StatusNotFound, 300001, "总结不存在: "+date)
		return
	}

	record, err := h.summaries.FindByDate(room.ID, date, domainChat.SummaryTypeDaily)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 300002, "查询总结失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"date": date, "content": content, "record": record})
}

// Delete 删除指定日期的总结（文件与记录），下次生成时重做
func (h *SummaryHandler) Delete(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}
	date := c.Param("date")

	if err := h.docs.DeleteSummary(room.Name, date); err != nil {
		response.Error(c, http.StatusInternalServerError, 300004, "删除总结文件失败: "+err.Error())
		return
	}
	if err := h.summaries.DeleteByDate(room.ID, date, domainChat.SummaryTypeDaily); err != nil {
		response.Error(c, http.StatusInternalServerError, 300004, "删除总结记录失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"deleted": date})
}

// Pending 尚未总结的日期列表
func (h *SummaryHandler) Pending(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	dates, err := h.staleness.DatesNeedingSummary(room.ID, room.Name)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 300005, "查询待总结日期失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"dates": dates})
}

// GenerateRequest 生成总结请求
type GenerateRequest struct {
	Dates []string `json:"dates"` // 为空时补齐所有待总结日期
}

// Generate 启动后台总结任务，立即返回任务 ID
func (h *SummaryHandler) Generate(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, 300006, "无效的请求参数: "+err.Error())
			return
		}
	}

	dates := req.Dates
	if len(dates) == 0 {
		pending, err := h.staleness.DatesNeedingSummary(room.ID, room.Name)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, 300005, "查询待总结日期失败: "+err.Error())
			return
		}
		dates = pending
	}
	if len(dates) == 0 {
		response.Success(c, gin.H{"message": "没有待总结的日期"})
		return
	}

	job := h.jobs.Launch(room.Name, dates, func(ctx context.Context) *summary.RangeReport {
		return h.service.SummarizeRange(ctx, room, dates)
	})
	c.JSON(http.StatusAccepted, response.Response{
		Code:    0,
		Message: "success",
		Data:    job.Snapshot(),
	})
}

// Jobs 全部后台任务
func (h *SummaryHandler) Jobs(c *gin.Context) {
	response.Success(c, h.jobs.List())
}

// Job 单个任务状态
func (h *SummaryHandler) Job(c *gin.Context) {
	job := h.jobs.Get(c.Param("id"))
	if job == nil {
		response.Error(c, http.StatusNotFound, 300007, "任务不存在: "+c.Param("id"))
		return
	}
	response.Success(c, job.Snapshot())
}

// CancelJob 取消运行中的任务，已完成的日期保留
func (h *SummaryHandler) CancelJob(c *gin.Context) {
	if !h.jobs.Cancel(c.Param("id")) {
		response.Error(c, http.StatusNotFound, 300007, "任务不存在或已结束: "+c.Param("id"))
		return
	}
	response.Success(c, gin.H{"canceled": c.Param("id")})
}

// findRoom 按路径参数查房间，未找到时写 404 并返回 false
func (h *SummaryHandler) findRoom(c *gin.Context) (*domainChat.Room, bool) {
	room, err := h.rooms.FindByName(c.Param("name"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100002, "查询房间失败: "+err.Error())
		return nil, false
	}
	if room == nil {
		response.Error(c, http.StatusNotFound, 100001, "房间不存在: "+c.Param("name"))
		return nil, false
	}
	return room, true
}
