package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "OBSFORGE_CONFIG_PATH"

// DefaultConfigPaths lists where a config file is searched for, in priority
// order; the first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/obsforge/config.yaml",
}

// Load builds a Config from defaults, an optional YAML file, then
// environment variables (OBSFORGE_ prefixed, "__" as the nesting separator,
// e.g. OBSFORGE_SCHEDULER__DEFAULT_SEEDS=16).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	if path := configFilePath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.ProviderWithValue("OBSFORGE_", "__", envTransform), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFilePath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransform(key, value string) (string, interface{}) {
	k := strings.ToLower(strings.TrimPrefix(key, "OBSFORGE_"))
	k = strings.ReplaceAll(k, "__", ".")
	return k, value
}
