package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookcaseapp/bookcase-server/internal/config"
	"github.com/bookcaseapp/bookcase-server/internal/covers"
	"github.com/bookcaseapp/bookcase-server/internal/logger"
)

// ProvideUploader provides the cover image upload client. An unconfigured
// endpoint yields a client whose Configured() is false; uploads then fail
// with an unavailable error instead of breaking startup.
func ProvideUploader(i do.Injector) (*covers.Uploader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.UploadConfigured() {
		log.Warn("image uploads not configured, cover upload disabled")
	}

	return covers.NewUploader(cfg.Upload.Endpoint, cfg.Upload.UploadPreset, log.Logger), nil
}

// ProvideGenerator provides the cover generation client.
func ProvideGenerator(i do.Injector) (*covers.Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.GenerationConfigured() {
		log.Warn("cover generation not configured, generation disabled")
	}

	return covers.NewGenerator(cfg.Generation.Endpoint, cfg.Generation.Token, log.Logger), nil
}
