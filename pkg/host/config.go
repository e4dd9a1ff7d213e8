// Package host implements the Host Orchestrator (C9): it reads
// services.json, loads and compiles each service concurrently, wires up
// auth and policy, and registers the resulting tools.
package host

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/oasbridge/bridge/pkg/compiler"
	"github.com/oasbridge/bridge/pkg/loader"
)

// Config is the top-level services.json/yaml document (§7.2).
type Config struct {
	Services []ServiceEntry `json:"services" yaml:"services"`
}

// ServiceEntry describes one OpenAPI-backed service to mount.
type ServiceEntry struct {
	Name     string       `json:"name" yaml:"name"`
	Type     string       `json:"type" yaml:"type"`
	SpecFile string       `json:"specFile" yaml:"specFile"`
	SpecURL  string       `json:"specUrl" yaml:"specUrl"`
	BaseURL  string       `json:"baseUrl" yaml:"baseUrl"`
	Auth     *AuthEntry   `json:"auth" yaml:"auth"`
	Filters  *FilterEntry `json:"filters" yaml:"filters"`
}

// AuthEntry is a service-level auth override supplied by the host, highest
// priority in the Auth Broker's chain (§5.5 point 1).
type AuthEntry struct {
	Kind            string `json:"kind" yaml:"kind"`
	Name            string `json:"name" yaml:"name"`
	In              string `json:"in" yaml:"in"`
	Env             string `json:"env" yaml:"env"`
	Value           string `json:"value" yaml:"value"`
	TokenURL        string `json:"tokenUrl" yaml:"tokenUrl"`
	ClientIDEnv     string `json:"clientIdEnv" yaml:"clientIdEnv"`
	ClientSecretEnv string `json:"clientSecretEnv" yaml:"clientSecretEnv"`
	OnMissing       string `json:"onMissing" yaml:"onMissing"`
}

// FilterEntry is the on-disk shape of compiler.Filters (§7.2's `filters`).
type FilterEntry struct {
	IncludeTags   []string `json:"includeTags" yaml:"includeTags"`
	ExcludeTags   []string `json:"excludeTags" yaml:"excludeTags"`
	IncludeOps    []string `json:"includeOps" yaml:"includeOps"`
	ExcludeOps    []string `json:"excludeOps" yaml:"excludeOps"`
	IncludePaths  []string `json:"includePaths" yaml:"includePaths"`
	ExcludePaths  []string `json:"excludePaths" yaml:"excludePaths"`
	IncludeOpsRe  []string `json:"includeOpsRe" yaml:"includeOpsRe"`
	ExcludeOpsRe  []string `json:"excludeOpsRe" yaml:"excludeOpsRe"`
	IncludeText   string   `json:"includeText" yaml:"includeText"`
	ExcludeText   string   `json:"excludeText" yaml:"excludeText"`
}

// ToFilters converts the on-disk filter shape into compiler.Filters.
func (f *FilterEntry) ToFilters() compiler.Filters {
	if f == nil {
		return compiler.Filters{}
	}
	return compiler.Filters{
		IncludeTags:  compiler.StringSet{Exact: f.IncludeTags},
		ExcludeTags:  compiler.StringSet{Exact: f.ExcludeTags},
		IncludeOps:   compiler.StringSet{Exact: f.IncludeOps, Regex: f.IncludeOpsRe},
		ExcludeOps:   compiler.StringSet{Exact: f.ExcludeOps, Regex: f.ExcludeOpsRe},
		IncludePaths: compiler.StringSet{Exact: f.IncludePaths},
		ExcludePaths: compiler.StringSet{Exact: f.ExcludePaths},
		IncludeText:  f.IncludeText,
		ExcludeText:  f.ExcludeText,
	}
}

// LoadConfig reads and decodes services.json/yaml, interpolating every
// string field against the process environment (§7.2).
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	expandConfig(&cfg)
	return &cfg, nil
}

func expandConfig(cfg *Config) {
	for i := range cfg.Services {
		s := &cfg.Services[i]
		s.Name = loader.Expand(s.Name)
		s.Type = loader.Expand(s.Type)
		s.SpecFile = loader.Expand(s.SpecFile)
		s.SpecURL = loader.Expand(s.SpecURL)
		s.BaseURL = loader.Expand(s.BaseURL)

		if s.Auth != nil {
			a := s.Auth
			a.Kind = loader.Expand(a.Kind)
			a.Name = loader.Expand(a.Name)
			a.In = loader.Expand(a.In)
			a.Env = loader.Expand(a.Env)
			a.Value = loader.Expand(a.Value)
			a.TokenURL = loader.Expand(a.TokenURL)
			a.ClientIDEnv = loader.Expand(a.ClientIDEnv)
			a.ClientSecretEnv = loader.Expand(a.ClientSecretEnv)
			a.OnMissing = loader.Expand(a.OnMissing)
		}

		if s.Filters != nil {
			f := s.Filters
			f.IncludeText = loader.Expand(f.IncludeText)
			f.ExcludeText = loader.Expand(f.ExcludeText)
		}
	}
}
