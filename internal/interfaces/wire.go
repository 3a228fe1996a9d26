package interfaces

import (
	"github.com/google/wire"
	"github.com/kakaosum/backend/internal/interfaces/http"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	http.ProviderSet,
)
