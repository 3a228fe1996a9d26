package handler

import "github.com/google/wire"

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewRoomHandler,
	NewImportHandler,
	NewSummaryHandler,
	NewURLHandler,
	NewLLMHandler,
)
