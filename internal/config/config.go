// Package config provides configuration loading and path management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config is the resolved supervisor configuration.
type Config struct {
	// CLI is the assistant executable; CLIArgs are passed before the
	// protocol flags appended at session start.
	CLI     string   `json:"cli,omitempty"`
	CLIArgs []string `json:"cli_args,omitempty"`

	// HTTP API bind address.
	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`

	LogLevel   string `json:"log_level,omitempty"`
	PrettyLogs bool   `json:"pretty_logs,omitempty"`

	// AutoApproveAll turns on the approve-everything switch at startup.
	AutoApproveAll bool `json:"auto_approve_all,omitempty"`

	// RulesFile points to a YAML rule set loaded over the defaults and
	// watched for changes.
	RulesFile string `json:"rules_file,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		CLI:      "claude",
		Hostname: "127.0.0.1",
		Port:     4517,
		LogLevel: "info",
	}
}

// Load resolves configuration from multiple sources (priority order):
// 1. Built-in defaults
// 2. Global config (~/.config/agentgate/)
// 3. Project config (agentgate.json[c] in the working directory)
// 4. AGENTGATE_CONFIG file
// 5. Environment variables
func Load(directory string) (*Config, error) {
	config := Defaults()

	loaded := make(map[string]bool)
	loadOnce := func(path, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "agentgate.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "agentgate.jsonc"), globalPath)

	if directory != "" {
		loadOnce(filepath.Join(directory, "agentgate.json"), directory)
		loadOnce(filepath.Join(directory, "agentgate.jsonc"), directory)
	}

	if configPath := os.Getenv("AGENTGATE_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	data = interpolate(data, baseDir)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *Config) {
	if source.CLI != "" {
		target.CLI = source.CLI
	}
	if len(source.CLIArgs) > 0 {
		target.CLIArgs = append([]string{}, source.CLIArgs...)
	}
	if source.Hostname != "" {
		target.Hostname = source.Hostname
	}
	if source.Port != 0 {
		target.Port = source.Port
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.PrettyLogs {
		target.PrettyLogs = true
	}
	if source.AutoApproveAll {
		target.AutoApproveAll = true
	}
	if source.RulesFile != "" {
		target.RulesFile = source.RulesFile
	}
}

// applyEnvOverrides applies AGENTGATE_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if cli := os.Getenv("AGENTGATE_CLI"); cli != "" {
		config.CLI = cli
	}
	if hostname := os.Getenv("AGENTGATE_HOSTNAME"); hostname != "" {
		config.Hostname = hostname
	}
	if port := os.Getenv("AGENTGATE_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			config.Port = n
		}
	}
	if level := os.Getenv("AGENTGATE_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if rulesFile := os.Getenv("AGENTGATE_RULES_FILE"); rulesFile != "" {
		config.RulesFile = rulesFile
	}
	if v := os.Getenv("AGENTGATE_AUTO_APPROVE_ALL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.AutoApproveAll = b
		}
	}
}

// Save writes the configuration to a file.
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
