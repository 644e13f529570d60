package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "config.schema.json"

type Config struct {
	// Population and density
	Population   int     `json:"population"`
	AreaFraction float64 `json:"areaFraction"`

	// Run length and reproducibility
	Epochs int    `json:"epochs"`
	Seed   uint64 `json:"seed"`

	// Model constants
	TimeStep            float64 `json:"timeStep"`
	RecoveryProbability float64 `json:"recoveryProbability"`
	StreakLimit         int     `json:"streakLimit"`
	MaxPackingAttempts  int     `json:"maxPackingAttempts"`

	// KeepHistory retains every epoch in memory, needed by the reports.
	KeepHistory        bool    `json:"keepHistory"`
	StepTimeoutSeconds float64 `json:"stepTimeoutSeconds"`

	// Rendering
	WindowWidth  int `json:"windowWidth"`
	WindowHeight int `json:"windowHeight"`
	VideoFPS     int `json:"videoFps"`
	FrameStride  int `json:"frameStride"`
}

// DefaultConfig mirrors the reference run: 40 citizens, 2000 epochs, 5% of the box covered.
func DefaultConfig() *Config {
	return &Config{
		Population:          40,
		AreaFraction:        0.05,
		Epochs:              2000,
		Seed:                1,
		TimeStep:            epidemic.DefaultTimeStep,
		RecoveryProbability: epidemic.DefaultRecoveryProbability,
		StreakLimit:         epidemic.DefaultStreakLimit,
		MaxPackingAttempts:  epidemic.DefaultMaxPackingAttempts,
		KeepHistory:         true,
		StepTimeoutSeconds:  60,
		WindowWidth:         1000,
		WindowHeight:        700,
		VideoFPS:            60,
		FrameStride:         1,
	}
}

// Params converts the configuration into arena parameters.
func (c *Config) Params() epidemic.Params {
	return epidemic.Params{
		Population:          c.Population,
		AreaFraction:        c.AreaFraction,
		TimeStep:            c.TimeStep,
		RecoveryProbability: c.RecoveryProbability,
		StreakLimit:         c.StreakLimit,
		MaxPackingAttempts:  c.MaxPackingAttempts,
	}
}

// StepTimeout bounds how long the runner waits for the arena actor to answer.
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutSeconds * float64(time.Second))
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// An empty schemaFile selects the embedded schema. Fields missing from the
// file keep their DefaultConfig value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseConfig(b, sch)
}

// ParseConfig validates and decodes a JSON document with the embedded schema.
func ParseConfig(b []byte) (*Config, error) {
	sch, err := compileSchema("")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return parseConfig(b, sch)
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		return jsonschema.Compile(schemaFile)
	}
	return jsonschema.CompileString(configSchemaURL, configSchema)
}

func parseConfig(b []byte, sch *jsonschema.Schema) (*Config, error) {
	// numbers stay json.Number so the schema checks the exact literal
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
