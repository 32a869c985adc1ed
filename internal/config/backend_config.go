package config

import (
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// BackendConfig is the runtime configuration handed to the API server,
// assembled in cmd/main from the loaded Config.
type BackendConfig struct {
	ListenPort             string
	FrontendEndpoint       string
	BackendEndpoint        string
	UploadDir              string
	MaxUploadSize          int64
	SendPacing             time.Duration
	HTMLSanitizationPolicy *bluemonday.Policy
}
