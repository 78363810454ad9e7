package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	MQTT       MQTTConfig       `json:"mqtt" yaml:"mqtt"`
	Backend    BackendConfig    `json:"backend" yaml:"backend"`
	Ingest     IngestConfig     `json:"ingest" yaml:"ingest"`
	Thresholds ThresholdsConfig `json:"thresholds" yaml:"thresholds"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Alerts     AlertsConfig     `json:"alerts" yaml:"alerts"`
	Devices    DevicesConfig    `json:"devices" yaml:"devices"`
	API        APIConfig        `json:"api" yaml:"api"`
	Slack      SlackConfig      `json:"slack" yaml:"slack"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
}

type MQTTConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	BrokerURL       string        `json:"broker_url" yaml:"broker_url"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	Topic           string        `json:"topic" yaml:"topic"`
	ClientID        string        `json:"client_id" yaml:"client_id"`
	ConnectTimeout  time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	ReconnectPeriod time.Duration `json:"reconnect_period" yaml:"reconnect_period"`
}

type BackendConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	IngestURL string        `json:"ingest_url" yaml:"ingest_url"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

type IngestConfig struct {
	ChannelBuffer int         `json:"channel_buffer" yaml:"channel_buffer"`
	REST          RESTConfig  `json:"rest" yaml:"rest"`
	Kafka         KafkaConfig `json:"kafka" yaml:"kafka"`
}

type RESTConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

// ThresholdsConfig holds the digester safety bands. Values exactly at a
// band edge count as normal.
type ThresholdsConfig struct {
	TemperatureMin float64 `json:"temperature_min" yaml:"temperature_min"`
	TemperatureMax float64 `json:"temperature_max" yaml:"temperature_max"`
	PressureMin    float64 `json:"pressure_min" yaml:"pressure_min"`
	PressureMax    float64 `json:"pressure_max" yaml:"pressure_max"`
	MethaneMax     float64 `json:"methane_max" yaml:"methane_max"`
}

type HistoryConfig struct {
	Limit int `json:"limit" yaml:"limit"`
}

type AlertsConfig struct {
	StoreLimit     int           `json:"store_limit" yaml:"store_limit"`
	NotifyCooldown time.Duration `json:"notify_cooldown" yaml:"notify_cooldown"`
}

type DevicesConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type SlackConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`
	Channel    string `json:"channel" yaml:"channel"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		MQTT: MQTTConfig{
			Enabled:         true,
			Topic:           "esp32/sensors",
			ClientID:        "biogasd",
			ConnectTimeout:  10 * time.Second,
			ReconnectPeriod: 3 * time.Second,
		},
		Backend: BackendConfig{Enabled: true, Timeout: 10 * time.Second},
		Ingest: IngestConfig{
			ChannelBuffer: 256,
			REST:          RESTConfig{Enabled: false, Addr: ":8080"},
			Kafka:         KafkaConfig{Enabled: false},
		},
		Thresholds: ThresholdsConfig{
			TemperatureMin: 35,
			TemperatureMax: 37,
			PressureMin:    8,
			PressureMax:    15,
			MethaneMax:     2.0,
		},
		History: HistoryConfig{Limit: 50},
		Alerts:  AlertsConfig{StoreLimit: 1000, NotifyCooldown: 5 * time.Minute},
		Devices: DevicesConfig{StoreLimit: 100},
		API:     APIConfig{Enabled: true, Addr: ":8081"},
		Slack:   SlackConfig{Enabled: false, Channel: "#alerts"},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:biogasd.db?_pragma=busy_timeout(5000)"},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a config without a file, for deployments that supply the
// connection settings purely through the environment.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays the broker and backend settings from the environment.
// Environment values win over file values.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("MQTT_BROKER_URL"); v != "" {
		cfg.MQTT.BrokerURL = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("MQTT_TOPIC"); v != "" {
		cfg.MQTT.Topic = v
	}
	if v := os.Getenv("INGEST_API_URL"); v != "" {
		cfg.Backend.IngestURL = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Slack.WebhookURL = v
		cfg.Slack.Enabled = true
	}
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "esp32/sensors"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "biogasd"
	}
	if cfg.MQTT.ConnectTimeout <= 0 {
		cfg.MQTT.ConnectTimeout = 10 * time.Second
	}
	if cfg.MQTT.ReconnectPeriod <= 0 {
		cfg.MQTT.ReconnectPeriod = 3 * time.Second
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Ingest.ChannelBuffer <= 0 {
		cfg.Ingest.ChannelBuffer = 256
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 50
	}
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = 1000
	}
	if cfg.Devices.StoreLimit <= 0 {
		cfg.Devices.StoreLimit = 100
	}
}

// Validate rejects configurations the service cannot start with. A live
// MQTT session needs all four connection settings up front; refusing to
// start beats connecting with half of them.
func Validate(cfg *Config) error {
	if cfg.MQTT.Enabled {
		var missing []string
		if cfg.MQTT.BrokerURL == "" {
			missing = append(missing, "mqtt.broker_url")
		}
		if cfg.MQTT.Username == "" {
			missing = append(missing, "mqtt.username")
		}
		if cfg.MQTT.Password == "" {
			missing = append(missing, "mqtt.password")
		}
		if cfg.Backend.Enabled && cfg.Backend.IngestURL == "" {
			missing = append(missing, "backend.ingest_url")
		}
		if len(missing) > 0 {
			return fmt.Errorf("configuration error: missing %s", strings.Join(missing, ", "))
		}
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Ingest.REST.Enabled && cfg.Ingest.REST.Addr == "" {
		return errors.New("ingest.rest.addr required when ingest.rest.enabled is true")
	}
	if cfg.Ingest.Kafka.Enabled {
		if len(cfg.Ingest.Kafka.Brokers) == 0 || cfg.Ingest.Kafka.Topic == "" || cfg.Ingest.Kafka.GroupID == "" {
			return errors.New("ingest.kafka requires brokers, topic, group_id")
		}
	}
	if cfg.Slack.Enabled && cfg.Slack.WebhookURL == "" {
		return errors.New("slack.webhook_url required when slack.enabled is true")
	}
	if cfg.Thresholds.TemperatureMin > cfg.Thresholds.TemperatureMax {
		return errors.New("thresholds.temperature_min must not exceed temperature_max")
	}
	if cfg.Thresholds.PressureMin > cfg.Thresholds.PressureMax {
		return errors.New("thresholds.pressure_min must not exceed pressure_max")
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStaticManager wraps an already-built config, for env-only startup and
// for tests.
func NewStaticManager(cfg *Config) *Manager {
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
