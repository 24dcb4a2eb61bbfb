package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.dsn", "./data/plcmond.db")

	// Upstream feed defaults
	v.SetDefault("feed.base_url", "http://localhost:8090/api")
	v.SetDefault("feed.ws_url", "ws://localhost:8090/api/ws")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.snapshot_timeout", "10s")
	v.SetDefault("feed.history_timeout", "12s")
	v.SetDefault("feed.ack_timeout", "10s")
	v.SetDefault("feed.resync_interval", "5m")

	// Alert lifecycle defaults
	v.SetDefault("alerts.refresh_interval", "30s")

	// Local history defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.retention_period", "720h")

	// Gateway connectivity probe defaults
	v.SetDefault("prober.target", "")
	v.SetDefault("prober.interval", "30s")
	v.SetDefault("prober.timeout", "3s")
	v.SetDefault("prober.count", 1)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("plcmond")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/plcmond")
	}

	// Environment variable support: PLC_SERVER_PORT=9090
	v.SetEnvPrefix("PLC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
