package ingest

import (
	"github.com/google/wire"
)

// ProviderSet 导入应用层依赖提供者集合
var ProviderSet = wire.NewSet(
	NewStalenessTracker,
	NewImporter,
)
