// Copyright 2025 Certen Protocol

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	yamlContent := "difficulty: 5\nauto_mint_tiers:\n  - SELF_AUTHENTICATING\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Difficulty != 5 {
		t.Errorf("expected overridden difficulty 5, got %d", cfg.Difficulty)
	}
	if cfg.MiningIterationCap != DefaultConfig().MiningIterationCap {
		t.Errorf("expected default mining iteration cap to survive, got %d", cfg.MiningIterationCap)
	}
}

func TestValidateRejectsUnknownTier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoMintTiers = []string{"NOT_A_TIER"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown tier")
	}
}

func TestValidateRejectsBadDifficulty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Difficulty = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero difficulty")
	}
}
