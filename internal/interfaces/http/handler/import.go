package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kakaosum/backend/internal/application/ingest"
	"github.com/kakaosum/backend/internal/interfaces/http/response"
)

// ImportHandler 导入处理器
type ImportHandler struct {
	importer *ingest.Importer
}

// NewImportHandler 创建导入处理器
func NewImportHandler(importer *ingest.Importer) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// ImportFileRequest 单文件导入请求
type ImportFileRequest struct {
	Path string `json:"path" binding:"required"`
	Room string `json:"room"` // 为空时按文件名推导
}

// ImportDirectoryRequest 目录导入请求
type ImportDirectoryRequest struct {
	Dir string `json:"dir" binding:"required"`
}

// ImportFile 导入单个导出文件
func (h *ImportHandler) ImportFile(c *gin.Context) {
	var req ImportFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 200001, "无效的请求参数: "+err.Error())
		return
	}

	report := h.importer.ImportFile(c.Request.Context(), req.Path, req.Room)
	if report.Err != "" {
		response.ErrorWithDetail(c, http.StatusUnprocessableEntity, 200002, "导入失败", report.Err)
		return
	}
	response.Success(c, report)
}

// ImportDirectory 批量导入目录下全部合格导出文件
func (h *ImportHandler) ImportDirectory(c *gin.Context) {
	var req ImportDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 200001, "无效的请求参数: "+err.Error())
		return
	}

	report, err := h.importer.ImportDirectory(c.Request.Context(), req.Dir)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, 200003, "目录导入失败: "+err.Error())
		return
	}
	response.Success(c, report)
}

// Rebuild 从按日文档重建关系库
func (h *ImportHandler) Rebuild(c *gin.Context) {
	report, err := h.importer.RebuildFromDocuments(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200004, "重建失败: "+err.Error())
		return
	}
	response.Success(c, report)
}
