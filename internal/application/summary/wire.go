package summary

import (
	"github.com/google/wire"
)

// ProviderSet 总结应用层依赖提供者集合
var ProviderSet = wire.NewSet(
	NewService,
	NewJobManager,
)
