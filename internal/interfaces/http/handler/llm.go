package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kakaosum/backend/internal/infrastructure/llm"
	"github.com/kakaosum/backend/internal/interfaces/http/response"
)

// LLMHandler LLM 诊断处理器
type LLMHandler struct {
	client *llm.Client
}

// NewLLMHandler 创建 LLM 诊断处理器
func NewLLMHandler(client *llm.Client) *LLMHandler {
	return &LLMHandler{client: client}
}

// Providers 已注册的提供商列表与当前选用
func (h *LLMHandler) Providers(c *gin.Context) {
	response.Success(c, gin.H{
		"providers": llm.ProviderNames(),
		"active":    h.client.ProviderName(),
	})
}

// Test 对当前提供商做一次连通性测试
func (h *LLMHandler) Test(c *gin.Context) {
	if err := h.client.TestConnection(c.Request.Context()); err != nil {
		response.Error(c, http.StatusBadGateway, 500001, "LLM 连接测试失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"provider": h.client.ProviderName(), "status": "ok"})
}
