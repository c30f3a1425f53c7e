// Package di provides dependency injection configuration for the Bookcase server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookcaseapp/bookcase-server/internal/auth"
	"github.com/bookcaseapp/bookcase-server/internal/config"
	"github.com/bookcaseapp/bookcase-server/internal/covers"
	"github.com/bookcaseapp/bookcase-server/internal/di/providers"
	"github.com/bookcaseapp/bookcase-server/internal/logger"
	"github.com/bookcaseapp/bookcase-server/internal/service"
	"github.com/bookcaseapp/bookcase-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideHub)
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Cover pipeline clients
	do.Provide(injector, providers.ProvideUploader)
	do.Provide(injector, providers.ProvideGenerator)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideShelfService)
	do.Provide(injector, providers.ProvideCoverService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.HubHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*covers.Uploader](injector)
	_ = do.MustInvoke[*covers.Generator](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.ShelfService](injector)
	_ = do.MustInvoke[*service.CoverService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
