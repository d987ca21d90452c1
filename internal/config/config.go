package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "shipmanifest.cfg.json"

// RosterPolicy holds the host-provided toggles governing roster edits.
type RosterPolicy struct {
	EnableRename           bool `json:"enableRename" mapstructure:"enableRename"`
	EnableChangeProfession bool `json:"enableChangeProfession" mapstructure:"enableChangeProfession"`
	// RealismMode restricts crew placement to vessels that have not launched.
	RealismMode bool `json:"realismMode" mapstructure:"realismMode"`
}

// SQLiteConfig holds local roster database settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects the roster persistence backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DiagnosticsConfig holds diagnostic log settings
type DiagnosticsConfig struct {
	MaxEntries int    `json:"maxEntries" mapstructure:"maxEntries"`
	Level      string `json:"level" mapstructure:"level"`
}

// InfluxConfig holds resource telemetry settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// SetDefaults registers default values for every known key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./manifestlogs")

	viper.SetDefault("diagnostics.maxEntries", 1000)
	viper.SetDefault("diagnostics.level", "info")

	viper.SetDefault("roster.enableRename", true)
	viper.SetDefault("roster.enableChangeProfession", true)
	viper.SetDefault("roster.realismMode", false)

	viper.SetDefault("capabilities.deepFreeze", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "./shipmanifest_roster.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "shipmanifest")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "shipmanifest")
	viper.SetDefault("influx.bucket", "vessel_resources")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "shipmanifest")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "30s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
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

// GetRosterPolicy returns the roster edit toggles.
func GetRosterPolicy() RosterPolicy {
	return RosterPolicy{
		EnableRename:           viper.GetBool("roster.enableRename"),
		EnableChangeProfession: viper.GetBool("roster.enableChangeProfession"),
		RealismMode:            viper.GetBool("roster.realismMode"),
	}
}

// CapabilityEnabled reports whether the config declares the named
// integration installed. Keys are matched case-insensitively.
func CapabilityEnabled(name string) bool {
	return viper.GetBool("capabilities." + name)
}

// GetStorageConfig returns the roster persistence settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetDiagnosticsConfig returns the diagnostic log settings.
func GetDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		MaxEntries: viper.GetInt("diagnostics.maxEntries"),
		Level:      viper.GetString("diagnostics.level"),
	}
}

// GetInfluxConfig returns the telemetry sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}
