package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "deliveryzones.cfg.json"

// APIConfig holds the remote zone service settings
type APIConfig struct {
	ServerURL string        `json:"serverUrl" mapstructure:"serverUrl"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

// SQLiteConfig holds local database settings
type SQLiteConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	// DumpPath receives a copy of the database on close. Empty disables it.
	DumpPath string `json:"dumpPath" mapstructure:"dumpPath"`
}

// MemoryConfig holds in-memory storage backend settings
type MemoryConfig struct {
	Seed bool `json:"seed" mapstructure:"seed"`
}

// StorageConfig selects and configures the zone store
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// MapConfig holds rendering settings
type MapConfig struct {
	SampleCount     int           `json:"sampleCount" mapstructure:"sampleCount"`
	DefaultRadiusKm float64       `json:"defaultRadiusKm" mapstructure:"defaultRadiusKm"`
	ResizeDebounce  time.Duration `json:"resizeDebounce" mapstructure:"resizeDebounce"`
	Width           int           `json:"width" mapstructure:"width"`
	Height          int           `json:"height" mapstructure:"height"`
	CenterLat       float64       `json:"centerLat" mapstructure:"centerLat"`
	CenterLng       float64       `json:"centerLng" mapstructure:"centerLng"`
}

// EditorConfig holds new-zone form defaults
type EditorConfig struct {
	DefaultColor    string  `json:"defaultColor" mapstructure:"defaultColor"`
	DefaultRadiusKm float64 `json:"defaultRadiusKm" mapstructure:"defaultRadiusKm"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./zonelogs")

	viper.SetDefault("api.serverUrl", "http://localhost:8000")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("storage.type", "api")
	viper.SetDefault("storage.memory.seed", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "deliveryzones")

	viper.SetDefault("map.sampleCount", 64)
	viper.SetDefault("map.defaultRadiusKm", 10)
	viper.SetDefault("map.resizeDebounce", "150ms")
	viper.SetDefault("map.width", 1024)
	viper.SetDefault("map.height", 768)
	viper.SetDefault("map.centerLat", 48.9219)
	viper.SetDefault("map.centerLng", 24.7082)

	viper.SetDefault("editor.defaultColor", "#22c55e")
	viper.SetDefault("editor.defaultRadiusKm", 2)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "deliveryzones")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// IsNotFound reports whether a Load error only means the file is absent;
// defaults are still in effect.
func IsNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
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

// GetAPIConfig returns the remote API settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		Timeout:   viper.GetDuration("api.timeout"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			Seed: viper.GetBool("storage.memory.seed"),
		},
		SQLite: SQLiteConfig{
			Path:     viper.GetString("storage.sqlite.path"),
			DumpPath: viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetMapConfig returns the rendering settings.
func GetMapConfig() MapConfig {
	return MapConfig{
		SampleCount:     viper.GetInt("map.sampleCount"),
		DefaultRadiusKm: viper.GetFloat64("map.defaultRadiusKm"),
		ResizeDebounce:  viper.GetDuration("map.resizeDebounce"),
		Width:           viper.GetInt("map.width"),
		Height:          viper.GetInt("map.height"),
		CenterLat:       viper.GetFloat64("map.centerLat"),
		CenterLng:       viper.GetFloat64("map.centerLng"),
	}
}

// GetEditorConfig returns the form defaults.
func GetEditorConfig() EditorConfig {
	return EditorConfig{
		DefaultColor:    viper.GetString("editor.defaultColor"),
		DefaultRadiusKm: viper.GetFloat64("editor.defaultRadiusKm"),
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
