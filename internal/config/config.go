// FILE: internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of a pipeline run and the read-only server.
// Defaults come from Default, a YAML file may override them and command
// line flags override both.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Parse  ParseConfig  `yaml:"parse"`
	Engine EngineConfig `yaml:"engine"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
}

// InputConfig selects the archive: a local PGN file or a chess.com player
type InputConfig struct {
	PGN               string  `yaml:"pgn" validate:"required_without=Username"`
	Username          string  `yaml:"username" validate:"omitempty,max=64"`
	From              string  `yaml:"from" validate:"omitempty,datetime=2006-01"`
	To                string  `yaml:"to" validate:"omitempty,datetime=2006-01"`
	BaseURL           string  `yaml:"base_url" validate:"omitempty,url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0,lte=10"`
	Verbose           bool    `yaml:"verbose"`
}

type ParseConfig struct {
	Policy        string `yaml:"policy" validate:"oneof=abort skip"`
	ProgressEvery int    `yaml:"progress_every" validate:"gte=0"`
}

// EngineConfig controls position evaluation. Depth takes precedence over
// MoveTime when both are set.
type EngineConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Path     string        `yaml:"path"`
	Depth    int           `yaml:"depth" validate:"gte=0,lte=60"`
	MoveTime time.Duration `yaml:"move_time" validate:"gte=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	Workers  int           `yaml:"workers" validate:"gte=1,lte=64"`
	Threads  int           `yaml:"threads" validate:"gte=0,lte=64"`
	HashMB   int           `yaml:"hash_mb" validate:"gte=0,lte=65536"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	CSV      bool   `yaml:"csv"`
	Database string `yaml:"database"` // empty disables persistence
	WAL      bool   `yaml:"wal"`
}

type ServerConfig struct {
	Host    string `yaml:"host" validate:"required"`
	Port    int    `yaml:"port" validate:"gte=1,lte=65535"`
	WebPort int    `yaml:"web_port" validate:"gte=0,lte=65535,nefield=Port"` // 0 disables the browser
	Dev     bool   `yaml:"dev"`
}

func Default() Config {
	return Config{
		Input: InputConfig{
			RequestsPerSecond: 2,
		},
		Parse: ParseConfig{
			Policy:        "abort",
			ProgressEvery: 500,
		},
		Engine: EngineConfig{
			Path:    "stockfish",
			Depth:   18,
			Timeout: 30 * time.Second,
			Workers: min(64, max(1, runtime.NumCPU()/2)),
			Threads: 1,
			HashMB:  64,
		},
		Output: OutputConfig{
			Dir: "data",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies YAML onto cfg, keeping fields the document leaves out
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and the rules spanning fields
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Input.From != "" && c.Input.To != "" && c.Input.From > c.Input.To {
		return fmt.Errorf("invalid config: input.from %s is after input.to %s", c.Input.From, c.Input.To)
	}
	if c.Engine.Enabled && c.Engine.Depth == 0 && c.Engine.MoveTime == 0 {
		return fmt.Errorf("invalid config: engine needs depth or move_time")
	}
	return nil
}

// ValidateServer checks only what serving stored runs needs
func (c *Config) ValidateServer() error {
	if err := validate.Struct(c.Server); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
