package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	pkgconfig "github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadFromFile loads configuration from a file, auto-detecting the format by extension.
// Supported formats: .yaml, .yml, .json, .toml
//
// A .env file next to the configuration is loaded first, then every ${VAR}
// reference in the file is replaced with the environment value.
func LoadFromFile(path string) (*pkgconfig.Config, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var decode func([]byte, *pkgconfig.Config) error
	switch ext {
	case ".yaml", ".yml":
		decode = func(data []byte, cfg *pkgconfig.Config) error { return yaml.Unmarshal(data, cfg) }
	case ".json":
		decode = func(data []byte, cfg *pkgconfig.Config) error { return json.Unmarshal(data, cfg) }
	case ".toml":
		decode = func(data []byte, cfg *pkgconfig.Config) error { return toml.Unmarshal(data, cfg) }
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}

	data, err := readExpanded(path)
	if err != nil {
		return nil, err
	}

	var cfg pkgconfig.Config
	if err := decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", strings.TrimPrefix(ext, "."), err)
	}

	return processConfig(&cfg)
}

func readExpanded(path string) ([]byte, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := expandEnv(string(data))
	if err != nil {
		return nil, err
	}
	return []byte(expanded), nil
}

// loadDotEnv loads the .env file beside the configuration, if there is one.
// Variables already set in the environment win.
func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	return nil
}

func expandEnv(input string) (string, error) {
	var missing []string
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// processConfig applies defaults and validates the configuration.
func processConfig(cfg *pkgconfig.Config) (*pkgconfig.Config, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
