package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Wheelmap  WheelmapConfig  `mapstructure:"wheelmap"`
	OSRM      OSRMConfig      `mapstructure:"osrm"`
	Photon    PhotonConfig    `mapstructure:"photon"`
	Map       MapConfig       `mapstructure:"map"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	// NodesTTL is how long a bbox node lookup stays cached, in seconds.
	NodesTTL int `mapstructure:"nodes_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WheelmapConfig points at the Wheelmap nodes API.
type WheelmapConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	PerPage int    `mapstructure:"per_page"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

func (w WheelmapConfig) RequestTimeout() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

// OSRMConfig points at an OSRM routing server.
type OSRMConfig struct {
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

func (o OSRMConfig) RequestTimeout() time.Duration {
	return time.Duration(o.Timeout) * time.Second
}

// PhotonConfig points at a Photon geocoder used for place search.
type PhotonConfig struct {
	URL      string `mapstructure:"url"`
	Timeout  int    `mapstructure:"timeout"` // seconds
	Lang     string `mapstructure:"lang"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

func (p PhotonConfig) RequestTimeout() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// MapConfig holds the defaults every new map session starts from.
type MapConfig struct {
	CenterLat   float64 `mapstructure:"center_lat"`
	CenterLon   float64 `mapstructure:"center_lon"`
	Zoom        int     `mapstructure:"zoom"`
	MaxZoom     int     `mapstructure:"max_zoom"`
	TileURL     string  `mapstructure:"tile_url"`
	Attribution string  `mapstructure:"attribution"`
	DebounceMS  int     `mapstructure:"debounce_ms"`
}

func (m MapConfig) Debounce() time.Duration {
	return time.Duration(m.DebounceMS) * time.Millisecond
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// WarmupBBoxes are "minLon,minLat,maxLon,maxLat" boxes pre-fetched by
	// the warm-up workflow.
	WarmupBBoxes []string `mapstructure:"warmup_bboxes"`
	// WarmupEvery is the schedule interval of the warm-up workflow, in
	// minutes.
	WarmupEvery int `mapstructure:"warmup_every"`
}

func (t TemporalConfig) WarmupInterval() time.Duration {
	return time.Duration(t.WarmupEvery) * time.Minute
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: BARRIERFREE_WHEELMAP_API_KEY → wheelmap.api_key
	v.SetEnvPrefix("BARRIERFREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "barrierfree")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "barrierfree")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.nodes_ttl", 120)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("wheelmap.url", "https://wheelmap.org/api")
	v.SetDefault("wheelmap.api_key", "")
	v.SetDefault("wheelmap.per_page", 500)
	v.SetDefault("wheelmap.timeout", 10)
	v.SetDefault("osrm.url", "https://router.project-osrm.org")
	v.SetDefault("osrm.timeout", 10)
	v.SetDefault("photon.url", "https://photon.komoot.io")
	v.SetDefault("photon.timeout", 5)
	v.SetDefault("photon.lang", "en")
	v.SetDefault("photon.cache_ttl", 3600)
	v.SetDefault("map.center_lat", 43.263)
	v.SetDefault("map.center_lon", -2.935)
	v.SetDefault("map.zoom", 13)
	v.SetDefault("map.max_zoom", 19)
	v.SetDefault("map.tile_url", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("map.attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("map.debounce_ms", 500)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "barrierfree-warmup")
	v.SetDefault("temporal.warmup_bboxes", []string{"-2.97,43.24,-2.90,43.28"})
	v.SetDefault("temporal.warmup_every", 10)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Valkey.NodesTTL <= 0 {
		errs = append(errs, "valkey.nodes_ttl must be positive")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Wheelmap.URL == "" {
		errs = append(errs, "wheelmap.url is required")
	}
	if c.Wheelmap.PerPage <= 0 || c.Wheelmap.PerPage > 500 {
		errs = append(errs, fmt.Sprintf("wheelmap.per_page must be 1-500, got %d", c.Wheelmap.PerPage))
	}
	if c.Wheelmap.Timeout <= 0 {
		errs = append(errs, "wheelmap.timeout must be positive")
	}
	if c.OSRM.URL == "" {
		errs = append(errs, "osrm.url is required")
	}
	if c.OSRM.Timeout <= 0 {
		errs = append(errs, "osrm.timeout must be positive")
	}
	if c.Photon.URL == "" {
		errs = append(errs, "photon.url is required")
	}
	if c.Photon.Timeout <= 0 {
		errs = append(errs, "photon.timeout must be positive")
	}
	switch c.Photon.Lang {
	case "default", "en", "de", "fr", "it":
	default:
		errs = append(errs, fmt.Sprintf("photon.lang must be one of default, en, de, fr, it, got %q", c.Photon.Lang))
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("map.center_lat must be -90..90, got %v", c.Map.CenterLat))
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("map.center_lon must be -180..180, got %v", c.Map.CenterLon))
	}
	if c.Map.MaxZoom <= 0 || c.Map.MaxZoom > 22 {
		errs = append(errs, fmt.Sprintf("map.max_zoom must be 1-22, got %d", c.Map.MaxZoom))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > c.Map.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-%d, got %d", c.Map.MaxZoom, c.Map.Zoom))
	}
	if c.Map.TileURL == "" {
		errs = append(errs, "map.tile_url is required")
	}
	if c.Map.DebounceMS <= 0 {
		errs = append(errs, "map.debounce_ms must be positive")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Temporal.WarmupEvery <= 0 {
		errs = append(errs, "temporal.warmup_every must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
