package config

import "github.com/spf13/viper"

// setDefaults installs the baseline configuration. Model identifiers
// follow what a local Ollama host typically serves per RAM band.
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "1.0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.timeout_seconds", 600)

	v.SetDefault("models.orchestrator.primary", "llama3.2:3b")
	v.SetDefault("models.orchestrator.tier_map.minimal", "llama3.2:1b")
	v.SetDefault("models.orchestrator.tier_map.advanced", "llama3.3:70b")

	v.SetDefault("models.coder.primary", "qwen2.5-coder:7b")
	v.SetDefault("models.coder.tier_map.minimal", "qwen2.5-coder:1.5b")
	v.SetDefault("models.coder.tier_map.compact", "qwen2.5-coder:3b")
	v.SetDefault("models.coder.tier_map.performance", "qwen2.5-coder:14b")
	v.SetDefault("models.coder.tier_map.advanced", "qwen2.5-coder:32b")

	v.SetDefault("models.researcher.primary", "llama3.2:3b")
	v.SetDefault("models.researcher.tier_map.performance", "llama3.1:8b")
	v.SetDefault("models.researcher.tier_map.advanced", "llama3.3:70b")

	v.SetDefault("models.vision.primary", "llama3.2-vision:11b")
	v.SetDefault("models.vision.tier_map.minimal", "moondream:1.8b")

	v.SetDefault("context.max_tokens", 8192)
	v.SetDefault("context.compression.enabled", true)
	v.SetDefault("context.compression.strategy", "semantic")

	v.SetDefault("quality.fast.iterations", 1)
	v.SetDefault("quality.fast.verification", false)
	v.SetDefault("quality.fast.target_time_seconds", 120)
	v.SetDefault("quality.balanced.iterations", 2)
	v.SetDefault("quality.balanced.verification", true)
	v.SetDefault("quality.balanced.target_time_seconds", 600)
	v.SetDefault("quality.thorough.iterations", 4)
	v.SetDefault("quality.thorough.verification", true)
	v.SetDefault("quality.thorough.target_time_seconds", 1800)

	v.SetDefault("orchestration.default_mode", "auto")
}
