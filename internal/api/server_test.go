package api

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bookcaseapp/bookcase-server/internal/auth"
	"github.com/bookcaseapp/bookcase-server/internal/covers"
	"github.com/bookcaseapp/bookcase-server/internal/mirror"
	"github.com/bookcaseapp/bookcase-server/internal/service"
	"github.com/bookcaseapp/bookcase-server/internal/store"
	"github.com/bookcaseapp/bookcase-server/internal/validation"
)

type testServer struct {
	*Server
	api humatest.TestAPI
	hub *mirror.Hub
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := mirror.NewHub(nil, logger)
	st, err := store.New(tmpDir+"/badger", logger, hub)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	hub.SetLister(st)

	keyHex, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(keyHex, 15*time.Minute)
	require.NoError(t, err)

	validator := validation.New()
	services := &Services{
		Auth:  service.NewAuthService(st, tokenService, validator, logger),
		Shelf: service.NewShelfService(st, validator, logger),
		Cover: service.NewCoverService(covers.NewUploader("", "", logger), covers.NewGenerator("", "", logger), logger),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Bookcase API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		hub:      hub,
		router:   router,
		api:      api,
		logger:   logger,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerShelfRoutes()
	s.registerSearchRoutes()
	s.registerCoverRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, api),
		hub:    hub,
	}
}

// registerUser creates an account and returns its access token.
func (ts *testServer) registerUser(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct horse battery",
		"display_name": "Reader",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var body service.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}
