package infrastructure

import (
	"github.com/google/wire"
	"github.com/kakaosum/backend/internal/infrastructure/config"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/llm"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	docstore.ProviderSet,
	llm.ProviderSet,
)
