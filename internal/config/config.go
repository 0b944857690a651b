// Package config loads the unified YAML configuration, migrates legacy
// layouts, and parses per-project rule files.
package config

import (
	"time"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Version       string              `mapstructure:"version"`
	Log           LogConfig           `mapstructure:"log"`
	Ollama        OllamaConfig        `mapstructure:"ollama"`
	Models        ModelsConfig        `mapstructure:"models"`
	Context       ContextConfig       `mapstructure:"context"`
	Quality       QualityConfig       `mapstructure:"quality"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OllamaConfig configures the model backend.
type OllamaConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the backend timeout as a duration.
func (o OllamaConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// ModelsConfig holds one pool per role.
type ModelsConfig struct {
	Orchestrator PoolConfig `mapstructure:"orchestrator"`
	Coder        PoolConfig `mapstructure:"coder"`
	Researcher   PoolConfig `mapstructure:"researcher"`
	Vision       PoolConfig `mapstructure:"vision"`
}

// PoolConfig configures a role's model pool.
type PoolConfig struct {
	Primary string            `mapstructure:"primary"`
	TierMap map[string]string `mapstructure:"tier_map"`
}

// Pools converts the configuration to coordinator pools.
func (m ModelsConfig) Pools() (map[core.ModelRole]model.Pool, error) {
	out := make(map[core.ModelRole]model.Pool, 4)
	for role, pc := range map[core.ModelRole]PoolConfig{
		core.RoleOrchestrator: m.Orchestrator,
		core.RoleCoder:        m.Coder,
		core.RoleResearcher:   m.Researcher,
		core.RoleVision:       m.Vision,
	} {
		pool := model.Pool{Primary: pc.Primary}
		if len(pc.TierMap) > 0 {
			pool.TierMap = make(map[core.RAMTier]string, len(pc.TierMap))
			for tierName, id := range pc.TierMap {
				tier, err := core.ParseTier(tierName)
				if err != nil {
					return nil, err
				}
				pool.TierMap[tier] = id
			}
		}
		out[role] = pool
	}
	return out, nil
}

// ContextConfig configures the context manager.
type ContextConfig struct {
	MaxTokens   int               `mapstructure:"max_tokens"`
	Compression CompressionConfig `mapstructure:"compression"`
}

// CompressionConfig configures context compression.
type CompressionConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Strategy string `mapstructure:"strategy"`
}

// QualityConfig holds the three quality presets.
type QualityConfig struct {
	Fast     PresetConfig `mapstructure:"fast"`
	Balanced PresetConfig `mapstructure:"balanced"`
	Thorough PresetConfig `mapstructure:"thorough"`
}

// PresetConfig configures one quality preset.
type PresetConfig struct {
	Iterations        int  `mapstructure:"iterations"`
	Verification      bool `mapstructure:"verification"`
	TargetTimeSeconds int  `mapstructure:"target_time_seconds"`
}

// Preset returns a preset by name; unknown names get balanced.
func (q QualityConfig) Preset(name string) PresetConfig {
	switch name {
	case "fast":
		return q.Fast
	case "thorough":
		return q.Thorough
	default:
		return q.Balanced
	}
}

// OrchestrationConfig configures the pipeline shape.
type OrchestrationConfig struct {
	DefaultMode string           `mapstructure:"default_mode"`
	Schedules   []ScheduleConfig `mapstructure:"schedules"`
}

// ScheduleConfig overrides one phase's processes or model.
type ScheduleConfig struct {
	ID        int      `mapstructure:"id"`
	Processes []string `mapstructure:"processes"`
	Model     string   `mapstructure:"model"`
}
