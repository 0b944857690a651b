// Package service wires the core components into a runnable system:
// configuration, logging, the event bus, the model coordinator, the
// backend client, the context manager, and the session stores.
package service

import (
	"path/filepath"

	"github.com/cadenroberts/ollamabot/internal/config"
	"github.com/cadenroberts/ollamabot/internal/contextbuild"
	"github.com/cadenroberts/ollamabot/internal/events"
	"github.com/cadenroberts/ollamabot/internal/logging"
	"github.com/cadenroberts/ollamabot/internal/model"
	"github.com/cadenroberts/ollamabot/internal/ollama"
	"github.com/cadenroberts/ollamabot/internal/session"
	"github.com/cadenroberts/ollamabot/internal/sysinfo"
)

// Environment carries every shared dependency. It is constructed once
// before orchestration and passed explicitly; nothing here is a
// process-wide singleton.
type Environment struct {
	Config      *config.Config
	ConfigRoot  string
	Logger      *logging.Logger
	Bus         *events.Bus
	Host        sysinfo.HostInfo
	Coordinator *model.Coordinator
	Backend     *ollama.Client
	Context     *contextbuild.Manager
	Sessions    *session.Store
	index       *session.Index
}

// NewEnvironment builds an environment from loaded configuration.
func NewEnvironment(cfg *config.Config, configRoot string, logger *logging.Logger) (*Environment, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	host := sysinfo.Detect()
	pools, err := cfg.Models.Pools()
	if err != nil {
		return nil, err
	}
	coordinator := model.NewCoordinator(pools,
		model.WithTier(host.Tier),
		model.WithLogger(logger))

	sessionsDir := config.SessionsDir(configRoot)
	var storeOpts []session.StoreOption
	index, err := session.OpenIndex(filepath.Join(configRoot, "sessions.db"))
	if err == nil {
		storeOpts = append(storeOpts, session.WithIndex(index))
	} else {
		logger.Warn("session index unavailable, falling back to directory scans", "error", err)
		index = nil
	}
	storeOpts = append(storeOpts, session.WithLogger(logger))
	store, err := session.NewStore(sessionsDir, storeOpts...)
	if err != nil {
		return nil, err
	}

	return &Environment{
		Config:      cfg,
		ConfigRoot:  configRoot,
		Logger:      logger,
		Bus:         events.New(256),
		Host:        host,
		Coordinator: coordinator,
		Backend:     ollama.New(cfg.Ollama.URL, ollama.WithTimeout(cfg.Ollama.Timeout())),
		Context:     contextbuild.NewManager(cfg.Context.MaxTokens, contextbuild.WithLogger(logger)),
		Sessions:    store,
		index:       index,
	}, nil
}

// Checkpoints opens the checkpoint store for a workspace.
func (e *Environment) Checkpoints(workspace string) (*session.CheckpointStore, error) {
	return session.NewCheckpointStore(e.ConfigRoot, workspace)
}

// Close tears the environment down. Sessions were flushed by their
// writers; this releases the bus and the index.
func (e *Environment) Close() {
	if e.Bus != nil {
		e.Bus.Close()
	}
	if e.index != nil {
		_ = e.index.Close()
	}
}
