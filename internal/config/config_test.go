package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/identity"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "team.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `{
		"developers": [
			{"canonical_name": "Chad Walters", "git_emails": ["chad@example.com"]},
			{"canonical_name": "EJ", "github_handles": ["ej-dev"]}
		],
		"github_org": "acme",
		"repos": ["infra", "web"]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Developers, 2)
	assert.Equal(t, "acme", cfg.GithubOrg)
	assert.Equal(t, []string{"acme/infra", "acme/web"}, cfg.FullRepos())
	assert.Equal(t, ".northstar/metrics.db", cfg.DBPath)
	assert.Equal(t, ".northstar/artifacts", cfg.ArtifactsDir)

	r, err := cfg.NewResolver()
	require.NoError(t, err)
	assert.Equal(t, "Chad Walters", r.Resolve("chad@example.com", identity.SourceGitEmail))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)

	var cfgErr *identity.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_MissingDevelopersKey(t *testing.T) {
	path := writeConfig(t, `{"github_org": "acme"}`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *identity.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "developers")
}

func TestLoad_EmptyDevelopersArrayIsAccepted(t *testing.T) {
	// The key being present but empty is a roster problem, surfaced when
	// the resolver is constructed, not a parse failure.
	path := writeConfig(t, `{"developers": []}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.NewResolver()
	var cfgErr *identity.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"developers": [`)

	_, err := Load(path)
	var cfgErr *identity.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"developers": [], "db_path": "from-file.db"}`)

	t.Setenv("NS_DB_PATH", "/tmp/override.db")
	t.Setenv("NS_ARTIFACTS_DIR", "/tmp/artifacts")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
	assert.Equal(t, "/tmp/artifacts", cfg.ArtifactsDir)
}
