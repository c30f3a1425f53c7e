package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookcaseapp/bookcase-server/internal/auth"
	"github.com/bookcaseapp/bookcase-server/internal/config"
	"github.com/bookcaseapp/bookcase-server/internal/logger"
)

// AuthKey is the hex-encoded symmetric token key.
type AuthKey string

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex := cfg.Auth.AccessTokenKeyHex
	if keyHex == "" {
		generated, err := auth.LoadOrGenerateKey(cfg.Store.DataPath)
		if err != nil {
			return "", err
		}
		keyHex = generated
		cfg.Auth.AccessTokenKeyHex = generated
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(keyHex), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Auth.AccessTokenDuration)
}
