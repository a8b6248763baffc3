package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "unitcore.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// WebSocketConfig holds settings for the streaming backend
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// TargetingConfig holds auto-target selection settings
type TargetingConfig struct {
	RangeSqr    float64 `json:"rangeSqr" mapstructure:"rangeSqr"`
	HistorySize int     `json:"historySize" mapstructure:"historySize"`
}

// WorldConfig holds simulation settings
type WorldConfig struct {
	// Coordinates is "cartesian" or "wgs84".
	Coordinates  string        `json:"coordinates" mapstructure:"coordinates"`
	TickInterval time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
}

// FactionConfig is one entry of the factions list
type FactionConfig struct {
	ID       int    `json:"id" mapstructure:"id"`
	Name     string `json:"name" mapstructure:"name"`
	Hostile  []int  `json:"hostile" mapstructure:"hostile"`
	Friendly []int  `json:"friendly" mapstructure:"friendly"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./unitcorelogs")
	viper.SetDefault("defaultTag", "Combat")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "unitcore")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "unitcore-metrics")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./combatlogs")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./combatlogs/unitcore.db")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/stream")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "unitcore")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("targeting.rangeSqr", 1600.0)
	viper.SetDefault("targeting.historySize", 8)

	viper.SetDefault("world.coordinates", "cartesian")
	viper.SetDefault("world.tickInterval", "0s")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetTargetingConfig returns the auto-target settings.
func GetTargetingConfig() TargetingConfig {
	return TargetingConfig{
		RangeSqr:    viper.GetFloat64("targeting.rangeSqr"),
		HistorySize: viper.GetInt("targeting.historySize"),
	}
}

// GetWorldConfig returns the simulation settings.
func GetWorldConfig() WorldConfig {
	return WorldConfig{
		Coordinates:  viper.GetString("world.coordinates"),
		TickInterval: viper.GetDuration("world.tickInterval"),
	}
}

// GetFactions decodes the factions list. An absent list yields no factions.
func GetFactions() ([]*core.Faction, error) {
	var entries []FactionConfig
	if err := viper.UnmarshalKey("factions", &entries); err != nil {
		return nil, fmt.Errorf("decoding factions: %w", err)
	}

	seen := make(map[int]bool, len(entries))
	out := make([]*core.Faction, 0, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate faction id %d", e.ID)
		}
		seen[e.ID] = true
		out = append(out, core.NewFaction(e.ID, e.Name, e.Hostile, e.Friendly))
	}
	return out, nil
}
