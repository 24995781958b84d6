package types

import "errors"

// Config selects and parameterizes the storage backends. A single-backend
// deployment sets Backend/DataDir and leaves Routes empty; a routed
// deployment lists one RouteConfig per backend, exactly one marked default.
type Config struct {
	Backend  string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir  string        `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	IDPrefix string        `json:"id_prefix" yaml:"id_prefix" mapstructure:"id_prefix"`
	Routes   []RouteConfig `json:"routes" yaml:"routes" mapstructure:"routes"`
}

// RouteConfig describes one composite-router route: which backend serves it,
// the entity types and identifier prefix it owns, and whether it is the
// default.
type RouteConfig struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Backend  string   `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir  string   `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	IDPrefix string   `json:"id_prefix" yaml:"id_prefix" mapstructure:"id_prefix"`
	TypeTags []string `json:"type_tags" yaml:"type_tags" mapstructure:"type_tags"`
	Default  bool     `json:"default" yaml:"default" mapstructure:"default"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrNoDefaultRoute   = errors.New("exactly one route must be marked default")
	ErrManyDefaultRoute = errors.New("more than one route is marked default")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if len(c.Routes) == 0 {
		if c.Backend == "" {
			return ErrBackendEmpty
		}
		if !knownBackends[c.Backend] {
			return ErrBackendUnknown
		}
		return nil
	}
	defaults := 0
	for _, r := range c.Routes {
		if r.Backend == "" {
			return ErrBackendEmpty
		}
		if !knownBackends[r.Backend] {
			return ErrBackendUnknown
		}
		if r.Default {
			defaults++
		}
	}
	if defaults == 0 {
		return ErrNoDefaultRoute
	}
	if defaults > 1 {
		return ErrManyDefaultRoute
	}
	return nil
}
