// Package config loads and saves the harness's global config.json,
// grounded on the teacher's internal/config.LoadConfig/SaveConfig
// (flat struct, encoding/json, os.MkdirAll+os.WriteFile), enriched with
// the atomic temp-file-then-rename write internal/ssot already provides,
// since config.json is written rarely but must never be left torn.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
)

// Load reads config.json at path, applying DefaultConfig for any field
// the file omits and for a wholly-missing file. A field the file sets keeps
// the file's value, even when that value is a zero value.
func Load(path string) (*types.Config, error) {
	defaults := types.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := defaults
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg *types.Config) error {
	_, err := ssot.Mutate(path, true, func(doc *types.Config) error {
		*doc = *cfg
		return nil
	})
	return err
}
