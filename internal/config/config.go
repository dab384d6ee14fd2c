// Copyright 2025 Certen Protocol
//
// Ledger policy configuration, loaded from a YAML file per the teacher's
// pkg/config conventions (env-var Config.Load there, YAML Config.Load here —
// the policy surface this ledger needs is a file, not a service environment).

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// Config holds the resolved policy for one chain.
type Config struct {
	Difficulty          int           `yaml:"difficulty"`
	MiningIterationCap  int           `yaml:"mining_iteration_cap"`
	AutoMintTiers       []string      `yaml:"auto_mint_tiers"`
	MaterialMetadataKeys []string     `yaml:"material_metadata_keys"`
	SnapshotStoreDSN    string        `yaml:"snapshot_store_dsn"`
	MetricsAddr         string        `yaml:"metrics_addr"`
	LogLevel            string        `yaml:"log_level"`
	MiningPollInterval  time.Duration `yaml:"mining_poll_interval"`
}

// DefaultConfig returns the policy named in spec §4.1/§4.6/§5: difficulty 4,
// a 10^7-nonce mining budget, and only SELF_AUTHENTICATING/GOVERNMENT eligible
// for auto-mint.
func DefaultConfig() *Config {
	return &Config{
		Difficulty:         4,
		MiningIterationCap: 10_000_000,
		AutoMintTiers:      []string{string(artifact.TierSelfAuthenticating), string(artifact.TierGovernment)},
		LogLevel:           "info",
	}
}

// Load reads a YAML policy file and fills in defaults for anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the policy is internally consistent.
func (c *Config) Validate() error {
	if c.Difficulty < 1 || c.Difficulty > 64 {
		return fmt.Errorf("difficulty must be in [1,64], got %d", c.Difficulty)
	}
	if c.MiningIterationCap < 1 {
		return fmt.Errorf("mining_iteration_cap must be positive, got %d", c.MiningIterationCap)
	}
	for _, t := range c.AutoMintTiers {
		if !artifact.Tier(t).Valid() {
			return fmt.Errorf("auto_mint_tiers: unknown tier %q", t)
		}
	}
	return nil
}

// AutoMintTierSet returns the configured auto-mint tiers as a lookup set.
func (c *Config) AutoMintTierSet() map[artifact.Tier]bool {
	set := make(map[artifact.Tier]bool, len(c.AutoMintTiers))
	for _, t := range c.AutoMintTiers {
		set[artifact.Tier(t)] = true
	}
	return set
}
