package docstore

import (
	"github.com/google/wire"
)

// ProviderSet 文档存储依赖提供者集合
var ProviderSet = wire.NewSet(
	NewStore,
)
