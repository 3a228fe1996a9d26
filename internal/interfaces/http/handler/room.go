package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
	"github.com/kakaosum/backend/internal/interfaces/http/response"
)

// RoomHandler 房间处理器
type RoomHandler struct {
	rooms    storage.RoomRepository
	messages storage.MessageRepository
	syncLogs storage.SyncLogRepository
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(
	rooms storage.RoomRepository,
	messages storage.MessageRepository,
	syncLogs storage.SyncLogRepository,
) *RoomHandler {
	return &RoomHandler{rooms: rooms, messages: messages, syncLogs: syncLogs}
}

// List 房间列表（按消息数降序）
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.FindAll()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100002, "查询房间列表失败: "+err.Error())
		return
	}
	response.Success(c, rooms)
}

// Get 房间详情
func (h *RoomHandler) Get(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}
	response.Success(c, room)
}

// Stats 房间统计
func (h *RoomHandler) Stats(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	stats, err := h.rooms.Stats(room.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100003, "查询房间统计失败: "+err.Error())
		return
	}
	response.Success(c, stats)
}

// Senders 房间参与者列表
func (h *RoomHandler) Senders(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	senders, err := h.messages.UniqueSenders(room.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "查询参与者失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"senders": senders})
}

// Messages 房间消息（可选 start_date/end_date 过滤）
func (h *RoomHandler) Messages(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	messages, err := h.messages.FindByRoom(room.ID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100005, "查询消息失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"count": len(messages), "messages": messages})
}

// SyncLogs 房间同步日志
func (h *RoomHandler) SyncLogs(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, err := h.syncLogs.ListByRoom(room.ID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100006, "查询同步日志失败: "+err.Error())
		return
	}
	response.Success(c, logs)
}

// Delete 删除房间及全部关联数据
// 磁盘文档不动，可通过重建恢复
func (h *RoomHandler) Delete(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	if err := h.rooms.Delete(room.ID); err != nil {
		response.Error(c, http.StatusInternalServerError, 100007, "删除房间失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"deleted": room.Name})
}

// findRoom 按路径参数查房间，未找到时写 404 并返回 false
func (h *RoomHandler) findRoom(c *gin.Context) (*domainChat.Room, bool) {
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
