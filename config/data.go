package config

import (
	"fmt"
	"runtime"
)

// DataConfig locates the datasets, prescriptions and results.
type DataConfig struct {
	// Root holds datasets/, prescriptions/ and results/.
	Root string `json:"root"`
	// IndexPath is the SQLite result index; empty disables indexing.
	IndexPath string `json:"index_path"`
}

func (c *DataConfig) SetDefaults() {
	if c.Root == "" {
		c.Root = "data"
	}
}

func (c DataConfig) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	return nil
}

// ExperimentConfig tunes the experiment runner.
type ExperimentConfig struct {
	// Workers bounds how many instances are solved at once.
	Workers int `json:"workers"`
	// FromScratch discards existing results before running.
	FromScratch bool `json:"from_scratch"`
}

func (c *ExperimentConfig) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c ExperimentConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	return nil
}

// APIConfig configures the results API.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
