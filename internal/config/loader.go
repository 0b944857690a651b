package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// AppDirName is the configuration directory under the user config root.
const AppDirName = "ollamabot"

// LegacyDirName is the pre-unification configuration directory.
const LegacyDirName = "obot"

// ConfigRoot returns the platform-appropriate configuration root
// (~/.config/ollamabot on Linux).
func ConfigRoot() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", core.ErrIO("NO_CONFIG_ROOT", "resolving user config directory").WithCause(err)
	}
	return filepath.Join(base, AppDirName), nil
}

// SessionsDir returns the sessions directory under a config root.
func SessionsDir(root string) string {
	return filepath.Join(root, "sessions")
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	configRoot string
	envPrefix  string
	mu         sync.Mutex
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "OBOT",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance,
// allowing CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "OBOT",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithConfigRoot overrides the configuration root (used by tests).
func (l *Loader) WithConfigRoot(root string) *Loader {
	l.configRoot = root
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (OBOT_*)
// 3. Explicit config file
// 4. <config-root>/config.yaml
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	setDefaults(l.v)

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	root := l.configRoot
	if root == "" {
		if r, err := ConfigRoot(); err == nil {
			root = r
		}
	}

	if root != "" {
		// A legacy JSON configuration migrates before viper reads.
		if err := MigrateLegacyConfig(root); err != nil {
			return nil, err
		}
	}

	configPath := l.configFile
	if configPath == "" && root != "" {
		configPath = filepath.Join(root, "config.yaml")
	}

	if configPath != "" {
		l.v.SetConfigFile(configPath)
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				// No config file: defaults apply.
			} else if _, ok := err.(viper.ConfigParseError); ok {
				return nil, core.ErrCorruption(l.v.ConfigFileUsed(), "configuration failed to parse").WithCause(err)
			} else {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, core.ErrCorruption(l.v.ConfigFileUsed(), "configuration failed to decode").WithCause(err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate applies structural checks beyond decoding.
func validate(cfg *Config) error {
	if cfg.Context.MaxTokens <= 0 {
		return core.ErrValidation("INVALID_CONTEXT_BUDGET", "context.max_tokens must be positive")
	}
	if cfg.Ollama.URL == "" {
		return core.ErrValidation("MISSING_BACKEND_URL", "ollama.url must be set")
	}
	for _, sched := range cfg.Orchestration.Schedules {
		if !core.ValidPhase(core.PhaseID(sched.ID)) {
			return core.ErrValidation("INVALID_SCHEDULE_ID",
				fmt.Sprintf("orchestration.schedules id %d outside 1..5", sched.ID))
		}
		if len(sched.Processes) > core.ProcessCount {
			return core.ErrValidation("INVALID_SCHEDULE_PROCESSES",
				fmt.Sprintf("schedule %d lists %d processes", sched.ID, len(sched.Processes)))
		}
	}
	return nil
}
