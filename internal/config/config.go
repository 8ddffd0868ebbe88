package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"documentor/internal/docblock"

	"github.com/joho/godotenv"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "documentor.yaml"

//go:embed schema.json
var schemaSource string

type Config struct {
	Project struct {
		Roots    []string `yaml:"roots" json:"roots"`
		Excludes []string `yaml:"excludes" json:"excludes"` // directory names skipped while scanning
	} `yaml:"project" json:"project"`
	Storage struct {
		DB string `yaml:"db" json:"db"`
	} `yaml:"storage" json:"storage"`
	Output struct {
		Dir     string `yaml:"dir" json:"dir"`
		Workers int    `yaml:"workers" json:"workers"`
		TOC     bool   `yaml:"toc" json:"toc"`
	} `yaml:"output" json:"output"`
	Docblock struct {
		// Extra backtick field labels rendered as bullets, e.g. "name" or
		// "choices[]".
		Labels []string `yaml:"labels" json:"labels"`
	} `yaml:"docblock" json:"docblock"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Project.Roots = []string{"."}
	cfg.Storage.DB = "documentor.db"
	cfg.Output.Dir = "docs"
	cfg.Output.Workers = 4
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("DOCUMENTOR_DB"); db != "" {
		cfg.Storage.DB = db
	}
	if roots := os.Getenv("DOCUMENTOR_ROOTS"); roots != "" {
		cfg.Project.Roots = splitList(roots)
	}
	if workers := os.Getenv("DOCUMENTOR_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid DOCUMENTOR_WORKERS %q: %w", workers, err)
		}
		cfg.Output.Workers = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration against the embedded JSON schema.
func (c *Config) Validate() error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaSource)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// Vocabulary returns the default field labels plus the configured ones.
func (c *Config) Vocabulary() docblock.Vocabulary {
	v := docblock.DefaultVocabulary()
	for _, label := range c.Docblock.Labels {
		v[label] = docblock.BulletLabel
	}
	return v
}
