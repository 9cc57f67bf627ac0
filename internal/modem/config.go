package modem

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for a modem instance, loaded from
// a YAML file and overridable by CLI flags in cmd/omnipod-modem. Fields
// mirror the control-surface and sampling knobs an operator needs at
// startup; everything else (wire constants) is fixed, not configurable,
// per the spec's wire-compatibility note.
type Config struct {
	SampleRate float64 `yaml:"sample_rate"`

	InitialSecret  uint32 `yaml:"initial_secret"`
	InitialSeqno   uint32 `yaml:"initial_seqno"`
	MonitorOnStart bool   `yaml:"monitor_on_start"`

	LogLevel string `yaml:"log_level"`

	// ControlListenAddr is the TCP address the networked control
	// surface listens on, e.g. "127.0.0.1:7878".
	ControlListenAddr string `yaml:"control_listen_addr"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		SampleRate:        40000,
		LogLevel:          "info",
		ControlListenAddr: "127.0.0.1:7878",
	}
}

// LoadConfig reads and parses a YAML config file at path.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
