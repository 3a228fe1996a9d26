package llm

import (
	"github.com/google/wire"
)

// ProviderSet LLM 客户端依赖提供者集合
var ProviderSet = wire.NewSet(
	NewClient,
)
