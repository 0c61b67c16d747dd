// Package experiments runs a prescription: every listed solver on every
// instance of every listed dataset, archiving one result per pair.
package experiments

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tecsched/core/result"
	"github.com/kilianp07/tecsched/core/solver"
)

// ErrInvalidPrescription wraps every problem reported by Prescription.Validate.
var ErrInvalidPrescription = errors.New("invalid prescription")

// SolverConfig holds run settings. Unset fields inherit from the global
// config, then from solver.DefaultConfig.
type SolverConfig struct {
	RandomSeed                    *int64                `json:"RandomSeed" yaml:"RandomSeed"`
	TimeLimit                     *result.Duration      `json:"TimeLimit" yaml:"TimeLimit"`
	NumWorkers                    *int                  `json:"NumWorkers" yaml:"NumWorkers"`
	PresolveLevel                 *solver.PresolveLevel `json:"PresolveLevel" yaml:"PresolveLevel"`
	StopOnFeasibleSolution        *bool                 `json:"StopOnFeasibleSolution" yaml:"StopOnFeasibleSolution"`
	UseSerializedExtendedInstance *bool                 `json:"UseSerializedExtendedInstance" yaml:"UseSerializedExtendedInstance"`
}

// Merge returns general overridden by every field set in specific.
func Merge(general, specific *SolverConfig) SolverConfig {
	var out SolverConfig
	if general != nil {
		out = *general
	}
	if specific == nil {
		return out
	}
	if specific.RandomSeed != nil {
		out.RandomSeed = specific.RandomSeed
	}
	if specific.TimeLimit != nil {
		out.TimeLimit = specific.TimeLimit
	}
	if specific.NumWorkers != nil {
		out.NumWorkers = specific.NumWorkers
	}
	if specific.PresolveLevel != nil {
		out.PresolveLevel = specific.PresolveLevel
	}
	if specific.StopOnFeasibleSolution != nil {
		out.StopOnFeasibleSolution = specific.StopOnFeasibleSolution
	}
	if specific.UseSerializedExtendedInstance != nil {
		out.UseSerializedExtendedInstance = specific.UseSerializedExtendedInstance
	}
	return out
}

// RunConfig converts the settings into a run config.
func (c SolverConfig) RunConfig() solver.Config {
	cfg := solver.DefaultConfig()
	if c.RandomSeed != nil {
		cfg.RandomSeed = *c.RandomSeed
	}
	if c.TimeLimit != nil {
		cfg.TimeLimit = *c.TimeLimit
	}
	if c.NumWorkers != nil {
		cfg.NumWorkers = *c.NumWorkers
	}
	if c.PresolveLevel != nil {
		cfg.PresolveLevel = *c.PresolveLevel
	}
	if c.StopOnFeasibleSolution != nil {
		cfg.StopOnFeasibleSolution = *c.StopOnFeasibleSolution
	}
	return cfg
}

// UseSerialized reports whether derived tables stored in instance files are
// trusted.
func (c SolverConfig) UseSerialized() bool {
	return c.UseSerializedExtendedInstance != nil && *c.UseSerializedExtendedInstance
}

// SolverPrescription is one solver entry of a prescription.
type SolverPrescription struct {
	ID         string `json:"Id" yaml:"Id"`
	SolverName string `json:"SolverName" yaml:"SolverName"`
	// InitStartTimesFrom names an earlier solver whose result warm starts
	// this one.
	InitStartTimesFrom                 string `json:"InitStartTimesFrom" yaml:"InitStartTimesFrom"`
	DecreaseTimeLimitForInitStartTimes bool   `json:"DecreaseTimeLimitForInitStartTimes" yaml:"DecreaseTimeLimitForInitStartTimes"`
	// SubtractExtendTime charges the derivation of the instance tables to
	// the time limit.
	SubtractExtendTime      bool           `json:"SubstractExtendedInstanceGenerationFromTimeLimit" yaml:"SubstractExtendedInstanceGenerationFromTimeLimit"`
	Config                  *SolverConfig  `json:"Config" yaml:"Config"`
	SpecializedSolverConfig map[string]any `json:"SpecializedSolverConfig" yaml:"SpecializedSolverConfig"`
}

// Prescription is an experiment setup.
type Prescription struct {
	GlobalConfig *SolverConfig        `json:"GlobalConfig" yaml:"GlobalConfig"`
	DatasetNames []string             `json:"DatasetNames" yaml:"DatasetNames"`
	Solvers      []SolverPrescription `json:"Solvers" yaml:"Solvers"`
}

// Validate checks required fields and that warm start sources come earlier
// in the solver list.
func (p *Prescription) Validate() error {
	if len(p.DatasetNames) == 0 {
		return fmt.Errorf("%w: no dataset", ErrInvalidPrescription)
	}
	if len(p.Solvers) == 0 {
		return fmt.Errorf("%w: no solver", ErrInvalidPrescription)
	}
	seen := map[string]bool{}
	for i, s := range p.Solvers {
		if s.ID == "" || s.SolverName == "" {
			return fmt.Errorf("%w: solver %d needs Id and SolverName", ErrInvalidPrescription, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate solver id %q", ErrInvalidPrescription, s.ID)
		}
		if s.InitStartTimesFrom != "" && !seen[s.InitStartTimesFrom] {
			return fmt.Errorf("%w: solver %q takes init start times from %q which does not precede it",
				ErrInvalidPrescription, s.ID, s.InitStartTimesFrom)
		}
		seen[s.ID] = true
	}
	return nil
}

// LoadPrescription reads a prescription from a JSON or YAML file.
func LoadPrescription(path string) (*Prescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Prescription
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// clampSub returns d minus sub, never below zero.
func clampSub(d result.Duration, sub time.Duration) result.Duration {
	return result.Duration(max(0, d.Std()-sub))
}
