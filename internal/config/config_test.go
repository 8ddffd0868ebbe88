package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
project:
  roots: [src, lib]
  excludes: [cache]
storage:
  db: build/docs.db
output:
  dir: out
  workers: 8
  toc: true
docblock:
  labels: [name, "choices[]"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "lib"}, cfg.Project.Roots)
	assert.Equal(t, []string{"cache"}, cfg.Project.Excludes)
	assert.Equal(t, "build/docs.db", cfg.Storage.DB)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 8, cfg.Output.Workers)
	assert.True(t, cfg.Output.TOC)

	v := cfg.Vocabulary()
	assert.Contains(t, v, "name")
	assert.Contains(t, v, "choices[]")
	assert.Contains(t, v, "id")
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "output:\n  toc: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Output.TOC)
	assert.Equal(t, 4, cfg.Output.Workers)
	assert.Equal(t, "documentor.db", cfg.Storage.DB)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DOCUMENTOR_DB", "env.db")
	t.Setenv("DOCUMENTOR_ROOTS", "a, b,,c")
	t.Setenv("DOCUMENTOR_WORKERS", "2")

	cfg, err := LoadConfig(writeConfig(t, "storage:\n  db: file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Storage.DB)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Project.Roots)
	assert.Equal(t, 2, cfg.Output.Workers)

	t.Setenv("DOCUMENTOR_WORKERS", "many")
	_, err = LoadConfig(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"zero workers": "output:\n  workers: 0\n",
		"no roots":     "project:\n  roots: []\n",
		"empty db":     "storage:\n  db: \"\"\n",
		"bad label":    "docblock:\n  labels: [\"has space\"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "project: [unclosed\n"))
	assert.Error(t, err)
}
