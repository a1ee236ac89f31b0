package main

import (
	"database/sql"
	"os"

	"github.com/metalagman/openainodes/internal/config"
	"github.com/metalagman/openainodes/internal/db"
	"github.com/metalagman/openainodes/internal/host"
	"github.com/metalagman/openainodes/internal/llmconfig"
	"github.com/metalagman/openainodes/internal/metrics"
	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/nodes"
	"github.com/metalagman/openainodes/internal/run"
)

// workspace is the loaded config plus the opened stores.
type workspace struct {
	root    string
	cfg     config.Config
	db      *sql.DB
	store   *db.Store
	history *run.Store
}

func openWorkspace() (*workspace, func(), error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, func() {}, err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, func() {}, err
	}
	storeDB, err := db.Open(cfg.DatabasePath(root))
	if err != nil {
		return nil, func() {}, err
	}
	ws := &workspace{
		root:    root,
		cfg:     cfg,
		db:      storeDB,
		store:   db.NewStore(storeDB),
		history: run.NewStore(storeDB),
	}
	return ws, func() { _ = storeDB.Close() }, nil
}

// resolver looks up model configurations in the config file first, then the store.
func (w *workspace) resolver() llmconfig.Resolver {
	return llmconfig.Chain{w.cfg.Resolver(), w.store}
}

func (w *workspace) registry() (*node.Registry, error) {
	return nodes.NewRegistry(nodes.Deps{Resolver: w.resolver()})
}

// invoker builds the node invoker. recorder may be nil.
func (w *workspace) invoker(recorder *metrics.Recorder) (host.Invoker, error) {
	reg, err := w.registry()
	if err != nil {
		return host.Invoker{}, err
	}
	return host.Invoker{Registry: reg, Metrics: recorder, History: w.history}, nil
}

func (w *workspace) retention() run.RetentionPolicy {
	return run.RetentionPolicy{KeepLast: w.cfg.Retention.KeepLast, KeepDays: w.cfg.Retention.KeepDays}
}
