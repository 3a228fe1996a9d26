package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
	"github.com/kakaosum/backend/internal/interfaces/http/response"
)

// URLHandler 链接视图处理器
type URLHandler struct {
	rooms storage.RoomRepository
	urls  storage.URLRepository
	docs  *docstore.Store
}

// NewURLHandler 创建链接视图处理器
func NewURLHandler(rooms storage.RoomRepository, urls storage.URLRepository, docs *docstore.Store) *URLHandler {
	return &URLHandler{rooms: rooms, urls: urls, docs: docs}
}

// Window 指定时间窗口的链接视图
func (h *URLHandler) Window(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	window := docstore.URLWindow(c.DefaultQuery("window", string(docstore.URLWindowAll)))
	if !window.Valid() {
		response.Error(c, http.StatusBadRequest, 400002, "无效的时间窗口: "+string(window))
		return
	}

	entries, err := h.docs.LoadURLFile(room.Name, window)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 400003, "读取链接文件失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"window": window, "count": len(entries), "urls": entries})
}

// All 关系库中的全量链接记录
func (h *URLHandler) All(c *gin.Context) {
	room, ok := h.findRoom(c)
	if !ok {
		return
	}

	entries, err := h.urls.FindByRoom(room.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 400004, "查询链接失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"count": len(entries), "urls": entries})
}

// findRoom 按路径参数查房间，未找到时写 404 并返回 false
func (h *URLHandler) findRoom(c *gin.Context) (*domainChat.Room, bool) {
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
