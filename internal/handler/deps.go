package handler

import (
	"relaychat/internal/app/relay"
	"relaychat/internal/app/storage"
	"relaychat/internal/configs"
)

// AppDeps bundles the collaborators handlers need. StorageService is nil when
// avatar storage is not configured.
type AppDeps struct {
	Hub            *relay.Hub
	Config         *configs.AppConfig
	StorageService storage.StorageService
}
