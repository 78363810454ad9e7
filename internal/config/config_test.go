package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MQTT.Topic != "esp32/sensors" {
		t.Fatalf("default topic %q", cfg.MQTT.Topic)
	}
	if cfg.History.Limit != 50 {
		t.Fatalf("default history limit %d", cfg.History.Limit)
	}
	if cfg.Thresholds.TemperatureMin != 35 || cfg.Thresholds.TemperatureMax != 37 {
		t.Fatalf("default temperature band %v..%v", cfg.Thresholds.TemperatureMin, cfg.Thresholds.TemperatureMax)
	}
	if cfg.Thresholds.PressureMin != 8 || cfg.Thresholds.PressureMax != 15 {
		t.Fatalf("default pressure band %v..%v", cfg.Thresholds.PressureMin, cfg.Thresholds.PressureMax)
	}
	if cfg.Thresholds.MethaneMax != 2.0 {
		t.Fatalf("default methane max %v", cfg.Thresholds.MethaneMax)
	}
	if cfg.MQTT.ReconnectPeriod != 3*time.Second {
		t.Fatalf("default reconnect period %v", cfg.MQTT.ReconnectPeriod)
	}
}

func TestValidateRejectsMissingConnectionSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MQTT.BrokerURL = "mqtts://broker.example:8883"
	cfg.MQTT.Username = "sensor"
	// Password and ingest URL still missing.
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration error: missing ") {
		t.Fatalf("error %q", msg)
	}
	if !strings.Contains(msg, "mqtt.password") || !strings.Contains(msg, "backend.ingest_url") {
		t.Fatalf("error should name every missing field: %q", msg)
	}
	if strings.Contains(msg, "mqtt.broker_url") {
		t.Fatalf("broker url is present, error %q", msg)
	}
}

func TestValidatePassesWhenMQTTDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MQTT.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsInvertedBands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MQTT.Enabled = false
	cfg.Thresholds.TemperatureMin = 40
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for inverted temperature band")
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	t.Setenv("MQTT_BROKER_URL", "mqtts://env.example:8883")
	t.Setenv("MQTT_USERNAME", "")
	t.Setenv("MQTT_PASSWORD", "")
	t.Setenv("MQTT_TOPIC", "")
	t.Setenv("INGEST_API_URL", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
mqtt:
  broker_url: mqtts://file.example:8883
  username: sensor
  password: secret
  topic: plant/digester
backend:
  ingest_url: https://backend.example/api/sensors
history:
  limit: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTT.BrokerURL != "mqtts://env.example:8883" {
		t.Fatalf("environment should win over file, got %q", cfg.MQTT.BrokerURL)
	}
	if cfg.MQTT.Topic != "plant/digester" {
		t.Fatalf("topic %q", cfg.MQTT.Topic)
	}
	if cfg.History.Limit != 10 {
		t.Fatalf("history limit %d", cfg.History.Limit)
	}
	// Sections the file omits keep their defaults.
	if cfg.Thresholds.MethaneMax != 2.0 {
		t.Fatalf("methane max %v", cfg.Thresholds.MethaneMax)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Setenv("MQTT_BROKER_URL", "")
	t.Setenv("MQTT_USERNAME", "")
	t.Setenv("MQTT_PASSWORD", "")
	t.Setenv("MQTT_TOPIC", "")
	t.Setenv("INGEST_API_URL", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"mqtt":{"enabled":false},"backend":{"enabled":false},"api":{"enabled":true,"addr":":9000"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTT.Enabled {
		t.Fatalf("mqtt should be disabled")
	}
	if cfg.API.Addr != ":9000" {
		t.Fatalf("api addr %q", cfg.API.Addr)
	}
}

func TestManagerReload(t *testing.T) {
	t.Setenv("MQTT_BROKER_URL", "")
	t.Setenv("MQTT_USERNAME", "")
	t.Setenv("MQTT_PASSWORD", "")
	t.Setenv("MQTT_TOPIC", "")
	t.Setenv("INGEST_API_URL", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	write := func(limit int) {
		content := "mqtt:\n  enabled: false\nbackend:\n  enabled: false\nhistory:\n  limit: " +
			strconv.Itoa(limit) + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	write(10)
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.Get().History.Limit != 10 {
		t.Fatalf("initial limit %d", m.Get().History.Limit)
	}
	write(20)
	if _, err := m.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.Get().History.Limit != 20 {
		t.Fatalf("reloaded limit %d", m.Get().History.Limit)
	}
}
