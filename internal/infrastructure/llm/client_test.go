package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kakaosum/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 创建指向测试服务器的客户端
func newTestClient(t *testing.T, provider string, serverURL string) *Client {
	t.Helper()

	client, err := NewClientForProvider(provider, &config.LLMConfig{
		Provider:       provider,
		TimeoutSeconds: 5,
		MaxRetries:     2,
	})
	require.NoError(t, err)
	return client.withBaseURL(serverURL)
}

// chatCompletionJSON 构造标准的成功响应
func chatCompletionJSON(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(chatCompletionJSON("테스트 요약입니다"))
	}))
	defer server.Close()

	t.Setenv("ZAI_API_KEY", "test-key")
	client := newTestClient(t, "glm", server.URL)

	result := client.Complete(context.Background(), "", "요약해줘")
	require.True(t, result.Success(), "completion should succeed: %v", result.Err)
	assert.Equal(t, "테스트 요약입니다", result.Content)
	assert.Equal(t, 15, result.Usage.TotalTokens)
	assert.Equal(t, "glm", result.Provider)
}

func TestClient_Complete_MissingAPIKey(t *testing.T) {
	t.Setenv("ZAI_API_KEY", "")
	client := newTestClient(t, "glm", "http://127.0.0.1:0")

	result := client.Complete(context.Background(), "", "요약해줘")
	require.False(t, result.Success())
	assert.Contains(t, result.Err.Error(), "ZAI_API_KEY")
}

func TestClient_Complete_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(chatCompletionJSON("재시도 성공"))
	}))
	defer server.Close()

	t.Setenv("ZAI_API_KEY", "test-key")
	client := newTestClient(t, "glm", server.URL)

	result := client.Complete(context.Background(), "", "요약해줘")
	require.True(t, result.Success(), "should succeed after retry: %v", result.Err)
	assert.Equal(t, "재시도 성공", result.Content)
	assert.Equal(t, int32(2), calls.Load(), "5xx 应触发一次重试")
}

func TestClient_Complete_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	t.Setenv("ZAI_API_KEY", "bad-key")
	client := newTestClient(t, "glm", server.URL)

	result := client.Complete(context.Background(), "", "요약해줘")
	require.False(t, result.Success())
	assert.Equal(t, int32(1), calls.Load(), "4xx 为永久错误，不应重试")
}

func TestClient_Complete_TruncatedThenRecovered(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionJSON("완전한 요약")
		if calls.Add(1) == 1 {
			// 截断响应也带正文，finish_reason 才是判断依据
			resp["choices"].([]map[string]any)[0]["finish_reason"] = "length"
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	t.Setenv("ZAI_API_KEY", "test-key")
	client := newTestClient(t, "glm", server.URL)

	result := client.Complete(context.Background(), "", "요약해줘")
	require.True(t, result.Success(), "should succeed after retry: %v", result.Err)
	assert.Equal(t, "완전한 요약", result.Content)
	assert.Equal(t, int32(2), calls.Load(), "截断为可重试失败，应触发一次重试")
}

func TestClient_Complete_TruncatedEveryAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionJSON("잘린 요약")
		resp["choices"].([]map[string]any)[0]["finish_reason"] = "length"
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	t.Setenv("ZAI_API_KEY", "test-key")
	client := newTestClient(t, "glm", server.URL)

	result := client.Complete(context.Background(), "", "요약해줘")
	require.False(t, result.Success(), "持续截断的响应不应视为成功")
	assert.Contains(t, result.Err.Error(), "truncated")
	assert.Empty(t, result.Content)
}

func TestClient_Complete_MiniMaxBaseRespError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// MiniMax 以 HTTP 200 + base_resp 返回业务错误
		_ = json.NewEncoder(w).Encode(map[string]any{
			"base_resp": map[string]any{"status_code": 1008, "status_msg": "insufficient balance"},
		})
	}))
	defer server.Close()

	t.Setenv("MINIMAX_API_KEY", "test-key")
	client := newTestClient(t, "minimax", server.URL)

	result := client.Complete(context.Background(), "", "요약해줘")
	require.False(t, result.Success())
	assert.Contains(t, result.Err.Error(), "insufficient balance")
}

func TestClient_Complete_ContextCanceled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	client := newTestClient(t, "chatgpt", "http://127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// ChatGPT 限速等待时取消应立即返回
	result := client.Complete(ctx, "", "요약해줘")
	require.False(t, result.Success())
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestGetProvider(t *testing.T) {
	for _, name := range []string{"glm", "chatgpt", "minimax", "perplexity"} {
		p, err := GetProvider(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
		assert.NotEmpty(t, p.BaseURL)
		assert.NotEmpty(t, p.Model)
		assert.NotEmpty(t, p.EnvKey)
	}

	_, err := GetProvider("unknown")
	assert.Error(t, err)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Greater(t, EstimateTokens("안녕하세요 오늘 날씨가 좋네요"), 0)

	// 长文本的 Token 数应大于短文本
	short := EstimateTokens("hello")
	long := EstimateTokens("hello world, this is a much longer sentence for estimation")
	assert.Greater(t, long, short)
}
