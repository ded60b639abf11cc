package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/cradlewars/arena/pkg/core"
)

// FileName is the config file looked up in the config directory.
const FileName = "arena_server.cfg.json"

// ServerConfig holds the match server settings.
type ServerConfig struct {
	// Matches is how many bot matches `serve` starts on boot.
	Matches int `json:"matches" mapstructure:"matches"`
	// BotsPerTeam fills each started match with bot heroes.
	BotsPerTeam int `json:"botsPerTeam" mapstructure:"botsPerTeam"`
	// Seed for started matches; 0 picks one per match.
	Seed int64 `json:"seed" mapstructure:"seed"`
	// CommandLimit bounds the queued commands per match.
	CommandLimit int `json:"commandLimit" mapstructure:"commandLimit"`
	// SnapshotBuffer is the dispatcher queue size for post-tick snapshots.
	SnapshotBuffer int `json:"snapshotBuffer" mapstructure:"snapshotBuffer"`
	// MonitorInterval is how often server status is reported.
	MonitorInterval time.Duration `json:"monitorInterval" mapstructure:"monitorInterval"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds in-memory SQLite backend settings.
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}

// StreamConfig holds the replication websocket settings.
type StreamConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
	// SnapshotEvery sends every Nth snapshot; start and end are always sent.
	SnapshotEvery int `json:"snapshotEvery" mapstructure:"snapshotEvery"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Type is one of memory, sqlite, postgres, websocket.
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds tick metrics settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// APIConfig holds the results API settings.
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	// Upload sends exported match files once a match ends.
	Upload bool `json:"upload" mapstructure:"upload"`
}

// GraylogConfig holds the GELF log sink settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
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
	viper.SetDefault("defaultTag", "Arena")
	viper.SetDefault("logsDir", "./arenalogs")

	viper.SetDefault("server.matches", 1)
	viper.SetDefault("server.botsPerTeam", 3)
	viper.SetDefault("server.seed", 0)
	viper.SetDefault("server.commandLimit", 4096)
	viper.SetDefault("server.snapshotBuffer", 256)
	viper.SetDefault("server.monitorInterval", "10s")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.upload", false)

	viper.SetDefault("stream.url", "ws://localhost:5000/api/stream")
	viper.SetDefault("stream.secret", "")
	viper.SetDefault("stream.snapshotEvery", 1)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./matches")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./matches/arena.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "arena")
	viper.SetDefault("storage.postgres.sslmode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "arena-metrics")
	viper.SetDefault("influx.bucket", "arena")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "arena-server")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
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

// GetGameConfig returns the engine configuration: the stock arena with the
// "game" section laid over it.
func GetGameConfig() (core.GameConfig, error) {
	cfg := core.DefaultGameConfig()
	if viper.IsSet("game") {
		if err := unmarshalKey("game", &cfg); err != nil {
			return cfg, fmt.Errorf("decoding game config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}

// GetServerConfig returns the match server settings.
func GetServerConfig() ServerConfig {
	var c ServerConfig
	_ = unmarshalKey("server", &c)
	return c
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	var c StorageConfig
	_ = unmarshalKey("storage", &c)
	return c
}

// GetStreamConfig returns the replication websocket settings.
func GetStreamConfig() StreamConfig {
	var c StreamConfig
	_ = unmarshalKey("stream", &c)
	return c
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	var c OTelConfig
	_ = unmarshalKey("otel", &c)
	return c
}

// GetInfluxConfig returns the tick metrics settings.
func GetInfluxConfig() InfluxConfig {
	var c InfluxConfig
	_ = unmarshalKey("influx", &c)
	return c
}

// GetAPIConfig returns the results API settings.
func GetAPIConfig() APIConfig {
	var c APIConfig
	_ = unmarshalKey("api", &c)
	return c
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	var c GraylogConfig
	_ = unmarshalKey("graylog", &c)
	return c
}

// unmarshalKey decodes one section from the merged settings, so defaults
// survive for keys the file leaves out of a section it does set.
func unmarshalKey(key string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(viper.AllSettings()[strings.ToLower(key)])
}
