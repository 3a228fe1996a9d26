package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kakaosum/backend/internal/infrastructure/config"
	"github.com/kakaosum/backend/internal/infrastructure/log"
	"golang.org/x/time/rate"
)

// Client LLM Chat 客户端
// 所有提供商共用 OpenAI 兼容协议，限速和重试在客户端内部处理
type Client struct {
	provider   Provider
	apiKey     string
	maxRetries int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *slog.Logger
}

// ChatRequest Chat API 请求
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model,omitempty"`
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse Chat API 响应
type ChatResponse struct {
	ID      string `json:"id,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`

	// BaseResp MiniMax 在 HTTP 200 内返回的错误信息
	BaseResp *struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp,omitempty"`
}

// Usage Token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result 单次补全的结果
// 失败不抛错误链，调用方按字段判断，便于批量处理时跳过失败项
type Result struct {
	Provider string
	Content  string
	Usage    Usage
	Err      error
}

// Success 本次补全是否成功
func (r *Result) Success() bool {
	return r.Err == nil
}

// NewClient 创建 LLM 客户端
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	provider, err := GetProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	return &Client{
		provider:   provider,
		apiKey:     provider.APIKey(),
		maxRetries: cfg.MaxRetries,
		limiter:    provider.newLimiter(),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.NewModuleLogger("infrastructure", "llm"),
	}, nil
}

// NewClientForProvider 指定提供商创建客户端（覆盖配置中的默认提供商）
func NewClientForProvider(name string, cfg *config.LLMConfig) (*Client, error) {
	override := *cfg
	override.Provider = name
	return NewClient(&override)
}

// ProviderName 当前客户端使用的提供商名称
func (c *Client) ProviderName() string {
	return c.provider.Name
}

// Complete 发起一次补全请求，system 为空时只发送用户消息
// 限速等待、可重试失败的退避重试都在这里完成；
// ctx 取消会中断等待和请求
func (c *Client) Complete(ctx context.Context, system, prompt string) *Result {
	result := &Result{Provider: c.provider.Name}

	if c.apiKey == "" {
		result.Err = fmt.Errorf("missing api key: set %s", c.provider.EnvKey)
		return result
	}

	// 限速：ChatGPT 免费档 3 RPM，其他提供商不限
	if err := c.limiter.Wait(ctx); err != nil {
		result.Err = fmt.Errorf("rate limit wait canceled: %w", err)
		return result
	}

	operation := func() error {
		content, usage, err := c.doRequest(ctx, system, prompt)
		if err != nil {
			return err
		}
		result.Content = content
		result.Usage = usage
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		result.Err = err
		c.logger.Warn("llm completion failed",
			"provider", c.provider.Name, "error", err)
	}
	return result
}

// doRequest 执行单次 HTTP 请求
// 5xx 和 429 返回可重试错误，其余 4xx 返回永久错误
func (c *Client) doRequest(ctx context.Context, system, prompt string) (string, Usage, error) {
	var messages []Message
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	reqBody := ChatRequest{
		Messages: messages,
		Model:    c.provider.Model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, backoff.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/chat/completions", c.provider.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", Usage{}, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	c.logger.Debug("sending llm request",
		"provider", c.provider.Name, "model", c.provider.Model)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 网络错误可重试
		return "", Usage{}, fmt.Errorf("llm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("llm api returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", Usage{}, apiErr
		}
		return "", Usage{}, backoff.Permanent(apiErr)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", Usage{}, backoff.Permanent(fmt.Errorf("failed to decode llm response: %w", err))
	}

	// MiniMax 的错误以 HTTP 200 + base_resp 返回
	if chatResp.BaseResp != nil && chatResp.BaseResp.StatusCode != 0 {
		return "", Usage{}, backoff.Permanent(fmt.Errorf("llm api error %d: %s",
			chatResp.BaseResp.StatusCode, chatResp.BaseResp.StatusMsg))
	}

	if len(chatResp.Choices) == 0 {
		return "", Usage{}, backoff.Permanent(fmt.Errorf("llm api returned no choices"))
	}

	choice := chatResp.Choices[0]
	// 提供商明确标记截断时，即使带有正文也按失败处理，可重试
	if choice.FinishReason == "length" || choice.FinishReason == "max_tokens" {
		return "", Usage{}, fmt.Errorf("llm response truncated: finish_reason=%s", choice.FinishReason)
	}

	content := choice.Message.Content
	if content == "" {
		return "", Usage{}, backoff.Permanent(fmt.Errorf("llm api returned empty content"))
	}

	c.logger.Info("llm completion successful",
		"provider", c.provider.Name,
		"model", c.provider.Model,
		"tokens", chatResp.Usage.TotalTokens)
	return content, chatResp.Usage, nil
}

// TestConnection 测试 LLM API 连接
func (c *Client) TestConnection(ctx context.Context) error {
	result := c.Complete(ctx, "", "Reply with exactly: OK")
	if !result.Success() {
		return fmt.Errorf("llm connection test failed: %w", result.Err)
	}
	return nil
}

// withBaseURL 覆盖提供商地址（测试用）
func (c *Client) withBaseURL(baseURL string) *Client {
	c.provider.BaseURL = baseURL
	return c
}
