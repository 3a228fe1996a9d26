package storage

import (
	"github.com/google/wire"
)

// ProviderSet 存储层依赖提供者集合
var ProviderSet = wire.NewSet(
	ProvideDB,
	NewRoomRepository,
	NewMessageRepository,
	NewSummaryRepository,
	NewSyncLogRepository,
	NewURLRepository,
)
