package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// EnvPrefix prefixes every environment override, e.g. RECRUITSIM_STUDY_SITES.
const EnvPrefix = "RECRUITSIM_"

// Config holds all configuration options for recruitsim.
type Config struct {
	// Monte Carlo settings
	Simulation SimulationConfig `koanf:"simulation" toml:"simulation" envPrefix:"SIMULATION_"`

	// Study defaults used when flags are not given
	Study StudyConfig `koanf:"study" toml:"study" envPrefix:"STUDY_"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" envPrefix:"OUTPUT_"`

	// Logging settings
	Log LogConfig `koanf:"log" toml:"log" envPrefix:"LOG_"`
}

// SimulationConfig controls the sampling loop.
type SimulationConfig struct {
	Trials    int    `koanf:"trials" toml:"trials" env:"TRIALS"`
	Seed      uint64 `koanf:"seed" toml:"seed" env:"SEED"`             // 0 picks a random seed per run
	Workers   int    `koanf:"workers" toml:"workers" env:"WORKERS"`    // 0 uses NumCPU
	ChunkSize int    `koanf:"chunk_size" toml:"chunk_size" env:"CHUNK_SIZE"`
}

// StudyConfig describes the study being planned.
type StudyConfig struct {
	Sites  int   `koanf:"sites" toml:"sites" env:"SITES"`
	Goal   int   `koanf:"goal" toml:"goal" env:"GOAL"`
	Counts []int `koanf:"counts" toml:"counts" env:"COUNTS"` // per-site sample
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format         string `koanf:"format" toml:"format" env:"FORMAT"` // text, json, markdown, toon
	Color          bool   `koanf:"color" toml:"color" env:"COLOR"`
	HistogramWidth int    `koanf:"histogram_width" toml:"histogram_width" env:"HISTOGRAM_WIDTH"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `koanf:"level" toml:"level" env:"LEVEL"` // info, debug, trace
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Trials:    models.DefaultTrials,
			ChunkSize: 4096,
		},
		Study: StudyConfig{
			Sites: 10,
			Goal:  100,
		},
		Output: OutputConfig{
			Format:         "text",
			Color:          true,
			HistogramWidth: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

//go:embed schema.json
var schemaJSON []byte

var configSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("recruitsim.schema.json", doc); err != nil {
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	return c.MustCompile("recruitsim.schema.json")
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = koanfjson.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := validateDocument(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateDocument checks the raw config document against the schema.
// Parsers produce differing numeric types, so the document is normalized
// through JSON first.
func validateDocument(raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return configSchema.Validate(doc)
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path        string
	environment map[string]string
	skipEnv     bool
}

// WithPath loads the given file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithEnvironment replaces the process environment used for overrides.
func WithEnvironment(environ map[string]string) LoadOption {
	return func(o *loadOptions) {
		o.environment = environ
	}
}

// WithoutEnv disables environment overrides.
func WithoutEnv() LoadOption {
	return func(o *loadOptions) {
		o.skipEnv = true
	}
}

// LoadResult is the effective configuration and where it came from.
type LoadResult struct {
	Config *Config
	Source string // empty when no file was found
}

// LoadConfig loads a config file (explicit or discovered), applies
// RECRUITSIM_* environment overrides and validates the result.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := &LoadResult{Config: DefaultConfig()}

	path := o.path
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.Source = path
	}

	if !o.skipEnv {
		envOpts := env.Options{Prefix: EnvPrefix, Environment: o.environment}
		if err := env.ParseWithOptions(result.Config, envOpts); err != nil {
			return nil, fmt.Errorf("environment overrides: %w", err)
		}
	}

	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// configNames are the file names searched for, in order.
var configNames = []string{
	"recruitsim.toml",
	"recruitsim.yaml",
	"recruitsim.yml",
	"recruitsim.json",
	".recruitsim.toml",
	".recruitsim.yaml",
	".recruitsim.yml",
	".recruitsim.json",
}

// findConfigFile searches the current directory and .recruitsim for a config file.
func findConfigFile() string {
	searchDirs := []string{".", ".recruitsim"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// ValidFormats lists the accepted output formats.
var ValidFormats = []string{"text", "json", "markdown", "md", "toon"}

// ValidLogLevels lists the accepted log levels.
var ValidLogLevels = []string{"info", "debug", "trace"}

// Validate checks the semantic constraints the schema cannot express
// after environment overrides have been applied.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.Trials < 1 {
		errs = append(errs, fmt.Errorf("simulation.trials must be at least 1 (got %d)", c.Simulation.Trials))
	}
	if c.Simulation.Workers < 0 {
		errs = append(errs, fmt.Errorf("simulation.workers must not be negative (got %d)", c.Simulation.Workers))
	}
	if c.Simulation.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("simulation.chunk_size must not be negative (got %d)", c.Simulation.ChunkSize))
	}
	if c.Study.Sites < 1 {
		errs = append(errs, fmt.Errorf("study.sites must be at least 1 (got %d)", c.Study.Sites))
	}
	if c.Study.Goal < 0 {
		errs = append(errs, fmt.Errorf("study.goal must not be negative (got %d)", c.Study.Goal))
	}
	for i, n := range c.Study.Counts {
		if n < 0 {
			errs = append(errs, fmt.Errorf("study.counts[%d] must not be negative (got %d)", i, n))
		}
	}
	if !contains(ValidFormats, strings.ToLower(c.Output.Format)) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %s", c.Output.Format, strings.Join(ValidFormats, ", ")))
	}
	if c.Output.HistogramWidth < 10 {
		errs = append(errs, fmt.Errorf("output.histogram_width must be at least 10 (got %d)", c.Output.HistogramWidth))
	}
	if !contains(ValidLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of %s", c.Log.Level, strings.Join(ValidLogLevels, ", ")))
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
