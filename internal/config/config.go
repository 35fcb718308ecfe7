package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("agent-settings version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	ProfileService ProfileServiceConfig `mapstructure:"profile_service"`
}

// AuthType represents the type of authentication used against the profile service
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

// ProfileServiceConfig describes how to reach the backend that owns user profiles
type ProfileServiceConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url"`
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
	Timeout    time.Duration     `json:"timeout" mapstructure:"timeout"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	Host      string     `mapstructure:"host"`
	Mode      ServerMode `mapstructure:"mode"`
	Name      string     `mapstructure:"name"`
	Version   string     `mapstructure:"version"`
	AuthToken string     `mapstructure:"auth_token"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("mode", string(ServerModeSTDIO), "Server mode (stdio|sse|http)")
	pflag.String("profile-url", "", "Base URL of the profile service")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix("AGENT_SETTINGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	viper.SetDefault("server.name", "Agent Settings")
	viper.SetDefault("server.version", "1.0.0")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8321)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("profile_service.auth_type", string(AuthTypeNone))
	viper.SetDefault("profile_service.timeout", 30*time.Second)

	// Load ./config.yaml first
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AddConfigPath("/etc/agent-settings")

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional; flags and environment can carry everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Loading additional config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		viper.SetConfigFile("/config/config.yaml")
		// Merge /config/config.yaml (overrides overlapping keys)
		if err := viper.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Set server mode from flag
	if mode := viper.GetString("mode"); mode != "" {
		switch ServerMode(mode) {
		case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
			config.Server.Mode = ServerMode(mode)
		}
	}

	// Set profile service URL from flag or environment
	if profileURL := viper.GetString("profile-url"); profileURL != "" {
		config.ProfileService.BaseURL = profileURL
	}

	if config.ProfileService.BaseURL == "" {
		return nil, fmt.Errorf("profile service URL is required, please adjust the config or pass --profile-url or AGENT_SETTINGS_PROFILE_SERVICE_BASE_URL environment variable")
	}

	switch config.ProfileService.AuthType {
	case AuthTypeNone, AuthTypeBasic, AuthTypeBearer, AuthTypeAPIKey:
	default:
		return nil, fmt.Errorf("unsupported profile service auth type: %s", config.ProfileService.AuthType)
	}

	return &config, nil
}
