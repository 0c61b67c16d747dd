package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/result"
)

// PresolveLevel is the engine presolve setting. Values are persisted as
// integers.
type PresolveLevel int

const (
	PresolveAuto         PresolveLevel = -1
	PresolveOff          PresolveLevel = 0
	PresolveConservative PresolveLevel = 1
	PresolveAggressive   PresolveLevel = 2
)

func (p PresolveLevel) String() string {
	switch p {
	case PresolveAuto:
		return "Auto"
	case PresolveOff:
		return "Off"
	case PresolveConservative:
		return "Conservative"
	case PresolveAggressive:
		return "Aggressive"
	default:
		return fmt.Sprintf("PresolveLevel(%d)", int(p))
	}
}

// ErrInvalidConfig wraps every problem reported by Config.Validate.
var ErrInvalidConfig = errors.New("invalid run config")

// Config is the run configuration shared by every solver.
type Config struct {
	TimeLimit              result.Duration          `json:"TimeLimit" yaml:"TimeLimit"`
	StopOnFeasibleSolution bool                     `json:"StopOnFeasibleSolution" yaml:"StopOnFeasibleSolution"`
	NumWorkers             int                      `json:"NumWorkers" yaml:"NumWorkers"`
	PresolveLevel          PresolveLevel            `json:"PresolveLevel" yaml:"PresolveLevel"`
	InitStartTimes         []model.IndexedStartTime `json:"InitStartTimes" yaml:"InitStartTimes"`

	// RandomSeed seeds randomized strategies.
	RandomSeed int64 `json:"RandomSeed" yaml:"RandomSeed"`
}

// DefaultConfig returns a config with a one minute limit and automatic presolve.
func DefaultConfig() Config {
	return Config{TimeLimit: result.Duration(time.Minute), PresolveLevel: PresolveAuto}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time limit %s", ErrInvalidConfig, c.TimeLimit)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.NumWorkers)
	}
	if c.PresolveLevel < PresolveAuto || c.PresolveLevel > PresolveAggressive {
		return fmt.Errorf("%w: unknown presolve level %d", ErrInvalidConfig, int(c.PresolveLevel))
	}
	return nil
}

// EngineOptions derives the options handed to the engine once elapsed time
// has been spent on the run.
func (c Config) EngineOptions(elapsed time.Duration) EngineOptions {
	opts := EngineOptions{
		TimeLimit: Budget(c.TimeLimit.Std(), elapsed),
		Workers:   c.NumWorkers,
		Presolve:  c.PresolveLevel,
	}
	if c.StopOnFeasibleSolution {
		opts.SolutionLimit = 1
	}
	return opts
}

// LoadConfig reads a run config from a JSON or YAML file, chosen by extension.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadSpecialized reads a solver specific config as raw settings. A missing
// path yields empty settings.
func LoadSpecialized(path string) (map[string]any, error) {
	out := map[string]any{}
	if path == "" {
		return out, nil
	}
	if err := loadFile(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
