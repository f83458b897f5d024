// Package config loads the North Star team configuration: the developer
// identity roster plus the knobs shared by every subcommand (repos to
// extract, database path, artifacts directory).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/steveyegge/northstar/internal/identity"
)

// Config is the top-level team configuration, loaded from JSON.
type Config struct {
	// Developers is the identity roster. Required: a config without a
	// developers key is a fatal configuration error.
	Developers []identity.DeveloperRecord `json:"developers"`

	// GithubOrg is the GitHub organization to extract from.
	GithubOrg string `json:"github_org,omitempty"`

	// Repos are the repositories (without org prefix) to extract.
	Repos []string `json:"repos,omitempty"`

	// DBPath is the metrics database location. Default: .northstar/metrics.db
	DBPath string `json:"db_path,omitempty"`

	// ArtifactsDir is where chart and report artifacts are written.
	// Default: .northstar/artifacts
	ArtifactsDir string `json:"artifacts_dir,omitempty"`
}

// rawConfig distinguishes a missing developers key from an empty array.
type rawConfig struct {
	Developers   *[]identity.DeveloperRecord `json:"developers"`
	GithubOrg    string                      `json:"github_org"`
	Repos        []string                    `json:"repos"`
	DBPath       string                      `json:"db_path"`
	ArtifactsDir string                      `json:"artifacts_dir"`
}

// Load reads the team configuration from path.
//
// A missing or unreadable file and a file lacking the top-level developers
// key are both fatal ConfigurationErrors; no partial or default roster is
// ever synthesized.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &identity.ConfigurationError{
			Reason: fmt.Sprintf("reading %s: %v", path, err),
		}
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &identity.ConfigurationError{
			Reason: fmt.Sprintf("parsing %s: %v", path, err),
		}
	}
	if raw.Developers == nil {
		return nil, &identity.ConfigurationError{
			Reason: fmt.Sprintf("%s has no top-level developers key", path),
		}
	}

	cfg := &Config{
		Developers:   *raw.Developers,
		GithubOrg:    raw.GithubOrg,
		Repos:        raw.Repos,
		DBPath:       raw.DBPath,
		ArtifactsDir: raw.ArtifactsDir,
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = ".northstar/metrics.db"
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = ".northstar/artifacts"
	}
}

// applyEnv applies NS_-prefixed environment overrides. Only deployment
// knobs are overridable; the roster always comes from the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("NS_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("NS_ARTIFACTS_DIR"); v != "" {
		c.ArtifactsDir = v
	}
	if v := os.Getenv("NS_GITHUB_ORG"); v != "" {
		c.GithubOrg = v
	}
}

// NewResolver constructs the identity resolver from the configured roster.
func (c *Config) NewResolver() (*identity.Resolver, error) {
	return identity.NewResolver(c.Developers)
}

// FullRepos returns the configured repositories qualified with the GitHub
// org, e.g. "acme/infra".
func (c *Config) FullRepos() []string {
	out := make([]string, 0, len(c.Repos))
	for _, repo := range c.Repos {
		if c.GithubOrg != "" {
			out = append(out, c.GithubOrg+"/"+repo)
		} else {
			out = append(out, repo)
		}
	}
	return out
}
