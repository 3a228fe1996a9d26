package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenEstimator 估算 Prompt 的 Token 数量
// 用于在发送前判断文档是否超出模型上下文
type TokenEstimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// estimator 单例实例
var (
	estimatorInstance *TokenEstimator
	estimatorOnce     sync.Once
	estimatorErr      error
)

// GetTokenEstimator 获取 TokenEstimator 单例
// 使用单例模式避免重复加载编码文件
func GetTokenEstimator() (*TokenEstimator, error) {
	estimatorOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			estimatorErr = err
			return
		}
		estimatorInstance = &TokenEstimator{encoding: enc}
	})

	if estimatorErr != nil {
		return nil, estimatorErr
	}
	return estimatorInstance, nil
}

// CountTokens 计算文本的 Token 数量
func (e *TokenEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// EstimateTokens 估算文本的 Token 数量
// tiktoken 可用时精确计算，否则退化为按 4 字符 1 Token 估算
func EstimateTokens(text string) int {
	if est, err := GetTokenEstimator(); err == nil {
		return est.CountTokens(text)
	}
	return (len(text) + 3) / 4
}
