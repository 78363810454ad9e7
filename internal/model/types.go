package model

import "time"

type MetricStatus string

const (
	StatusNormal   MetricStatus = "normal"
	StatusWarning  MetricStatus = "warning"
	StatusCritical MetricStatus = "critical"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricPressure    Metric = "pressure"
	MetricMethane     Metric = "methane"
	MetricGas         Metric = "gas_consumption"
)

// RawReading is the wire form of one sensor sample. Numeric fields travel
// as decimal strings on both the broker bridge and the backend API.
type RawReading struct {
	ReadingID        int64  `json:"sensor_readings_id"`
	DeviceID         string `json:"device_id,omitempty"`
	TemperatureLevel string `json:"temperature_level,omitempty"`
	PressureLevel    string `json:"pressure_level,omitempty"`
	MethaneLevel     string `json:"methane_level,omitempty"`
	GasConsumption   string `json:"gas_consumption,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// Reading is the normalized form. A nil field means the sample carried no
// usable value for that metric; a reading with every field nil is still a
// valid reading.
type Reading struct {
	ReadingID      int64     `json:"sensor_readings_id"`
	DeviceID       string    `json:"device_id,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	Pressure       *float64  `json:"pressure,omitempty"`
	Methane        *float64  `json:"methane,omitempty"`
	GasConsumption *float64  `json:"gas_consumption,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Classification is the result of checking one metric value against its
// safety band.
type Classification struct {
	Status  MetricStatus `json:"status"`
	Message string       `json:"message"`
}

// Alert is one breach on one reading. ID is deterministic from the breach
// kind and the source reading, so re-deriving alerts for the same reading
// yields the same ids.
type Alert struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	ReadingID int64     `json:"reading_id"`
	DeviceID  string    `json:"device_id,omitempty"`
}

// ConnectionState describes the live transport. Error holds the most
// recent user-visible problem and is cleared by the next successful event.
type ConnectionState struct {
	Connected bool   `json:"is_connected"`
	Error     string `json:"error,omitempty"`
}

// SeriesPoint is one chart-ready sample. TimeLabel is blank when the series
// is dense enough that the axis label was thinned out.
type SeriesPoint struct {
	TimeLabel string    `json:"time"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityEvent is one entry of the per-metric activity feed derived from
// the latest reading.
type ActivityEvent struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Level   MetricStatus `json:"level"`
	TimeAgo string       `json:"time_ago"`
}

func Float(v float64) *float64 {
	return &v
}
