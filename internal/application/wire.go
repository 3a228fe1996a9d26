package application

import (
	"github.com/google/wire"
	"github.com/kakaosum/backend/internal/application/ingest"
	"github.com/kakaosum/backend/internal/application/summary"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	ingest.ProviderSet,
	summary.ProviderSet,
)
