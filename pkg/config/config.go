// Package config loads the engine configuration: yaml file over built-in
// defaults, with the env overrides the deployment platforms set.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"grstrategy/pkg/model"
	"grstrategy/pkg/track"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Results ResultsConfig `yaml:"results"`
	Engine  EngineConfig  `yaml:"engine"`
	Track   TrackConfig   `yaml:"track"`
	Notify  NotifyConfig  `yaml:"notify"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatasetConfig struct {
	TelemetryPath string `yaml:"telemetry_path"`
	WeatherPath   string `yaml:"weather_path"`
	HeroCar       string `yaml:"hero_car"`
	MaxRows       int    `yaml:"max_rows"`
}

type ResultsConfig struct {
	Path   string `yaml:"path"`
	Record bool   `yaml:"record"`
}

type EngineConfig struct {
	TickMillis              int     `yaml:"tick_ms"`
	GeofenceEnterMeters     float64 `yaml:"geofence_enter_m"`
	GeofenceExitMeters      float64 `yaml:"geofence_exit_m"`
	CrossingDebounceSeconds float64 `yaml:"crossing_debounce_s"`
	SectorFallbackMeters    float64 `yaml:"sector_fallback_m"`
	LapHistorySize          int     `yaml:"lap_history_size"`
	ConsistencyWindow       int     `yaml:"consistency_window"`
	ExcludedWarmupLaps      int     `yaml:"excluded_warmup_laps"`
	TopSpeedMarginKPH       float64 `yaml:"top_speed_margin_kph"`
	WeatherDeltaDegrees     float64 `yaml:"weather_delta_deg"`
	SyntheticLapSeconds     float64 `yaml:"synthetic_lap_s"`
	BrakePressureMax        float64 `yaml:"brake_pressure_max"`
}

type TrackConfig struct {
	// Start overrides the start/finish point derived from the recording.
	Start   *model.GeoPoint `yaml:"start"`
	Sectors []track.Box     `yaml:"sectors"`
	Markers []track.Marker  `yaml:"markers"`
}

type NotifyConfig struct {
	TelegramToken string  `yaml:"telegram_token"`
	ChatIDs       []int64 `yaml:"chat_ids"`
}

// Default returns the configuration with every constant at its built-in
// default.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Dataset: DatasetConfig{
			TelemetryPath: "data/Barber/telemetry_r1.csv",
			WeatherPath:   "data/Barber/weather_r1.CSV",
			HeroCar:       "GR86-002-000",
			MaxRows:       50000,
		},
		Results: ResultsConfig{Path: "./grstrategy.db"},
		Engine: EngineConfig{
			TickMillis:              100,
			GeofenceEnterMeters:     15,
			GeofenceExitMeters:      25,
			CrossingDebounceSeconds: 5,
			SectorFallbackMeters:    300,
			LapHistorySize:          120,
			ConsistencyWindow:       5,
			ExcludedWarmupLaps:      1,
			TopSpeedMarginKPH:       0.5,
			WeatherDeltaDegrees:     1,
			SyntheticLapSeconds:     90,
			BrakePressureMax:        1500,
		},
	}
}

// Load reads the yaml file at path over the defaults and applies env
// overrides. A missing file is not an error: the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parsing config %s", path)
		}
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("WEBSERVER_ADDRESS"); addr != "" {
		c.Server.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			c.Server.Addr = ":" + port
		}
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Notify.TelegramToken = token
	}
	if path := os.Getenv("TELEMETRY_PATH"); path != "" {
		c.Dataset.TelemetryPath = path
	}
}
