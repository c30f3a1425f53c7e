package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookcaseapp/bookcase-server/internal/auth"
	"github.com/bookcaseapp/bookcase-server/internal/covers"
	"github.com/bookcaseapp/bookcase-server/internal/logger"
	"github.com/bookcaseapp/bookcase-server/internal/service"
	"github.com/bookcaseapp/bookcase-server/internal/validation"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, validator, log.Logger), nil
}

// ProvideShelfService provides the shelf service.
func ProvideShelfService(i do.Injector) (*service.ShelfService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewShelfService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideCoverService provides the cover pipeline service.
func ProvideCoverService(i do.Injector) (*service.CoverService, error) {
	uploader := do.MustInvoke[*covers.Uploader](i)
	generator := do.MustInvoke[*covers.Generator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCoverService(uploader, generator, log.Logger), nil
}
