package builder

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the builder's file-backed configuration, usually carton.yaml in
// the application's config directory.
type Config struct {
	// TemplateDir is where bundled player templates live. The default
	// template is <TemplateDir>/player (player.exe on Windows).
	TemplateDir string `yaml:"template_dir"`

	// ResourceEditor is the path to the external resource-editing binary used
	// to patch icons into an executable's resource section. Empty disables
	// icon patching.
	ResourceEditor string `yaml:"resource_editor"`

	// OutputDir is the default directory for built executables.
	OutputDir string `yaml:"output_dir"`

	// LogLevel is one of: debug, info, warn, error, disabled.
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		TemplateDir: "templates",
		OutputDir:   "dist",
		LogLevel:    "info",
	}
}

// LoadConfig reads a yaml config file, layering it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
