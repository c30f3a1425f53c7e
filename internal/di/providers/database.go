package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookcaseapp/bookcase-server/internal/config"
	"github.com/bookcaseapp/bookcase-server/internal/logger"
	"github.com/bookcaseapp/bookcase-server/internal/mirror"
	"github.com/bookcaseapp/bookcase-server/internal/store"
)

// HubHandle wraps the mirror hub with its context for lifecycle management.
type HubHandle struct {
	*mirror.Hub
	ctx    context.Context
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Hub.Shutdown(ctx)
}

// ProvideHub provides the shelf snapshot hub. The hub's snapshot source
// is attached by ProvideStore once the store exists; the hub loop starts
// there too.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	hub := mirror.NewHub(nil, log.Logger)
	ctx, cancel := context.WithCancel(context.Background())

	return &HubHandle{
		Hub:    hub,
		cancel: cancel,
		ctx:    ctx,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store and wires it into the hub.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	hubHandle := do.MustInvoke[*HubHandle](i)

	dbPath := filepath.Join(cfg.Store.DataPath, "db")
	db, err := store.New(dbPath, log.Logger, hubHandle.Hub)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	// The hub re-reads shelves from the store on every change, so it can
	// only start once the store is up.
	hubHandle.SetLister(db)
	go hubHandle.Start(hubHandle.ctx)

	log.Info("Mirror hub started")

	return &StoreHandle{Store: db}, nil
}
