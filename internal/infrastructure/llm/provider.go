package llm

import (
	"fmt"
	"os"

	"golang.org/x/time/rate"
)

// Provider LLM 提供商定义
// 所有提供商均走 OpenAI 兼容的 chat/completions 接口，
// API Key 从各自的环境变量读取
type Provider struct {
	Name      string
	BaseURL   string
	Model     string
	EnvKey    string // API Key 环境变量名
	RateLimit rate.Limit
	Burst     int
}

// 内置提供商注册表
var providers = map[string]Provider{
	"glm": {
		Name:      "glm",
		BaseURL:   "https://open.bigmodel.cn/api/paas/v4",
		Model:     "glm-4-flash",
		EnvKey:    "ZAI_API_KEY",
		RateLimit: rate.Inf,
	},
	"chatgpt": {
		Name:    "chatgpt",
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		EnvKey:  "OPENAI_API_KEY",
		// 免费档限速 3 RPM，相邻请求至少间隔 20 秒
		RateLimit: rate.Limit(3.0 / 60.0),
		Burst:     1,
	},
	"minimax": {
		Name:      "minimax",
		BaseURL:   "https://api.minimax.chat/v1",
		Model:     "MiniMax-Text-01",
		EnvKey:    "MINIMAX_API_KEY",
		RateLimit: rate.Inf,
	},
	"perplexity": {
		Name:      "perplexity",
		BaseURL:   "https://api.perplexity.ai",
		Model:     "sonar",
		EnvKey:    "PERPLEXITY_API_KEY",
		RateLimit: rate.Inf,
	},
}

// GetProvider 按名称查找提供商
func GetProvider(name string) (Provider, error) {
	p, ok := providers[name]
	if !ok {
		return Provider{}, fmt.Errorf("unknown llm provider: %s", name)
	}
	return p, nil
}

// ProviderNames 所有已注册的提供商名称
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}

// APIKey 从环境变量读取该提供商的 API Key
func (p Provider) APIKey() string {
	return os.Getenv(p.EnvKey)
}

// newLimiter 为提供商创建限速器
func (p Provider) newLimiter() *rate.Limiter {
	burst := p.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(p.RateLimit, burst)
}
