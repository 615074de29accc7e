// Package config provides configuration management for loupe using Viper,
// loading from .loupe.yml, environment variables with the LOUPE_ prefix,
// and command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Preview   PreviewConfig   `yaml:"preview" mapstructure:"preview"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Open           bool     `yaml:"open" mapstructure:"open"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Environment    string   `yaml:"environment" mapstructure:"environment"`
}

type WorkspaceConfig struct {
	Root            string   `yaml:"root" mapstructure:"root"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
	TextExtensions  []string `yaml:"text_extensions" mapstructure:"text_extensions"`
}

type PreviewConfig struct {
	Namespace      string        `yaml:"namespace" mapstructure:"namespace"`
	ControllerWait time.Duration `yaml:"controller_wait" mapstructure:"controller_wait"`
	AckWait        time.Duration `yaml:"ack_wait" mapstructure:"ack_wait"`
	AutoReload     bool          `yaml:"auto_reload" mapstructure:"auto_reload"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3030,
			Host:        "localhost",
			Environment: "development",
		},
		Workspace: WorkspaceConfig{
			Root:            ".",
			ExcludePatterns: []string{".git", "node_modules", "vendor", ".loupe"},
		},
		Preview: PreviewConfig{
			Namespace:      "/preview/",
			ControllerWait: time.Second,
			AckWait:        2 * time.Second,
			AutoReload:     true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load() (*Config, error) {
	config := Default()
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	// Viper's zero-value handling for nested slices and bools requires
	// explicit probes for keys that were set to falsy values.
	if viper.IsSet("workspace.exclude_patterns") {
		if patterns := viper.GetStringSlice("workspace.exclude_patterns"); len(patterns) > 0 {
			config.Workspace.ExcludePatterns = patterns
		}
	}
	if viper.IsSet("workspace.text_extensions") {
		config.Workspace.TextExtensions = viper.GetStringSlice("workspace.text_extensions")
	}
	if viper.IsSet("preview.auto_reload") {
		config.Preview.AutoReload = viper.GetBool("preview.auto_reload")
	}
	if viper.IsSet("server.open") {
		config.Server.Open = viper.GetBool("server.open")
	}
	if viper.IsSet("server.no-open") && viper.GetBool("server.no-open") {
		config.Server.Open = false
	}

	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 3030
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}
	if config.Workspace.Root == "" {
		config.Workspace.Root = "."
	}
	if len(config.Workspace.ExcludePatterns) == 0 {
		config.Workspace.ExcludePatterns = []string{".git", "node_modules", "vendor", ".loupe"}
	}
	if config.Preview.Namespace == "" {
		config.Preview.Namespace = "/preview/"
	}
	if config.Preview.ControllerWait <= 0 {
		config.Preview.ControllerWait = time.Second
	}
	if config.Preview.AckWait <= 0 {
		config.Preview.AckWait = 2 * time.Second
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateWorkspaceConfig(&config.Workspace); err != nil {
		return fmt.Errorf("workspace config: %w", err)
	}
	if err := validatePreviewConfig(&config.Preview); err != nil {
		return fmt.Errorf("preview config: %w", err)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Port 0 is allowed for system-assigned ports in testing.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

func validateWorkspaceConfig(config *WorkspaceConfig) error {
	if config.Root == "" {
		return fmt.Errorf("empty workspace root")
	}

	cleanRoot := filepath.Clean(config.Root)
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanRoot, char) {
			return fmt.Errorf("workspace root contains dangerous character: %s", char)
		}
	}

	return nil
}

func validatePreviewConfig(config *PreviewConfig) error {
	ns := config.Namespace
	if !strings.HasPrefix(ns, "/") || !strings.HasSuffix(ns, "/") {
		return fmt.Errorf("namespace %q must start and end with a slash", ns)
	}
	if ns == "/" {
		return fmt.Errorf("namespace must not be the server root")
	}
	if strings.Contains(ns, "..") {
		return fmt.Errorf("namespace contains path traversal: %s", ns)
	}
	return nil
}
