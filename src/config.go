package rfpulse

import (
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-loaded configuration for cmd/pulsed, read the way the
// source's deviceid table is: parsed once at startup with yaml.v3 rather
// than a hand-rolled line parser, since this is a small declarative
// document rather than an open-ended command language.
type Config struct {
	SampleRate int `yaml:"sample_rate"`

	// LevelLimit overrides the adaptive OOK threshold when non-zero
	// (spec §4.B). Leave at 0 for the adaptive estimator.
	LevelLimit int `yaml:"level_limit"`

	// RawDumpPath and VCDPath are strftime patterns (see DumpFilename),
	// expanded against the current time for every completed packet.
	RawDumpPath string `yaml:"raw_dump_path"`
	VCDPath     string `yaml:"vcd_path"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint; empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	Station StationConfig `yaml:"station"`
}

// StationConfig records the receiver's fixed location, reusing the
// coordinate type the source's samoyed-ll2utm tool builds by hand from
// latitude/longitude flags.
type StationConfig struct {
	Callsign  string  `yaml:"callsign"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// LatLng converts the station's decimal-degree fields into a geo.LatLng,
// the same conversion samoyed-ll2utm performs before feeding a coordinate
// converter.
func (s StationConfig) LatLng() s2.LatLng {
	return s2.LatLng{
		Lat: s1.Angle(s.Latitude * math.Pi / 180),
		Lng: s1.Angle(s.Longitude * math.Pi / 180),
	}
}

// LoadConfig reads and parses a Config from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rfpulse: reading config %s: %w", path, err)
	}

	cfg := &Config{
		SampleRate: 250000,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("rfpulse: parsing config %s: %w", path, err)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("rfpulse: config %s: sample_rate must be positive", path)
	}
	return cfg, nil
}
