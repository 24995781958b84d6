// Shared wiring and output helpers for ontic CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ontic/internal/memstore"
	"github.com/mesh-intelligence/ontic/internal/services"
	"github.com/mesh-intelligence/ontic/internal/sqlite"
	"github.com/mesh-intelligence/ontic/pkg/composite"
	"github.com/mesh-intelligence/ontic/pkg/types"
)

// app is the wired dependency graph built once per invocation: config →
// backends → router → services.
type app struct {
	logger   *zap.Logger
	provider types.Provider

	things      *services.ThingService
	connections *services.ConnectionService
	events      *services.EventService
	knowledge   *services.KnowledgeService
	groups      *services.GroupService

	closers []io.Closer
}

// current is the app for the running command, set by openApp.
var current *app

func openApp() error {
	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	configDir, err := resolveConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a := &app{logger: logger}
	provider, err := a.buildProvider(cfg, logger)
	if err != nil {
		a.close()
		return err
	}
	a.provider = provider
	a.things = services.NewThingService(provider, logger)
	a.connections = services.NewConnectionService(provider, logger)
	a.events = services.NewEventService(provider)
	a.knowledge = services.NewKnowledgeService(provider, nil, logger)
	a.groups = services.NewGroupService(provider, logger)

	current = a
	return nil
}

func closeApp() error {
	if current == nil {
		return nil
	}
	err := current.close()
	current = nil
	return err
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return first
}

func buildLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if flagDebug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// buildProvider turns the config into a provider: a bare backend for the
// single-backend case, a composite router otherwise.
func (a *app) buildProvider(cfg types.Config, logger *zap.Logger) (types.Provider, error) {
	if len(cfg.Routes) == 0 {
		return a.buildBackend(cfg.Backend, cfg.DataDir, cfg.IDPrefix)
	}

	routes := make([]composite.Route, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		backend, err := a.buildBackend(rc.Backend, rc.DataDir, rc.IDPrefix)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rc.Name, err)
		}
		routes = append(routes, composite.Route{
			Name:     rc.Name,
			Provider: backend,
			TypeTags: rc.TypeTags,
			IDPrefix: rc.IDPrefix,
			Default:  rc.Default,
		})
	}
	return composite.New(logger, routes...)
}

func (a *app) buildBackend(backend, dataDir, idPrefix string) (types.Provider, error) {
	switch backend {
	case types.BackendMemory:
		return memstore.New(idPrefix), nil
	case types.BackendSQLite:
		resolved, err := resolveDataDir(dataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		store, err := sqlite.Open(resolved, idPrefix)
		if err != nil {
			return nil, fmt.Errorf("open sqlite at %s: %w", filepath.Clean(resolved), err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// printEntity renders a value as indented JSON. The --json flag switches to
// compact single-line output for scripting.
func printEntity(v any) error {
	var out []byte
	var err error
	if flagJSON {
		out, err = json.Marshal(v)
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// parseJSONMap parses a --metadata / --properties style flag value.
func parseJSONMap(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	m := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse json object: %w", err)
	}
	return m, nil
}

// parseEmbedding parses a JSON float array flag value.
func parseEmbedding(raw string) ([]float32, error) {
	if raw == "" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse embedding array: %w", err)
	}
	return v, nil
}
