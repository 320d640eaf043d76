package session

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drunlade/goarq/channel"
)

// fileConfig is the YAML-serializable subset of Config a user can hand
// cmd/goarqd via --config. Durations are strings (e.g. "250ms") since
// yaml.v3 has no native time.Duration support, matching the pattern
// every YAML-configured Go service in this stack follows.
type fileConfig struct {
	WindowSize  int     `yaml:"window_size"`
	Timeout     string  `yaml:"timeout"`
	MaxAttempts int     `yaml:"max_attempts"`
	PLoss       float64 `yaml:"p_loss"`
	PError      float64 `yaml:"p_error"`
	MaxDelay    string  `yaml:"max_delay"`
	Serial      struct {
		Port     string `yaml:"port"`
		BaudRate int    `yaml:"baud_rate"`
	} `yaml:"serial"`
}

// LoadConfig reads a YAML file at path and overlays it onto
// DefaultConfig. Zero-valued fields in the file are left at their
// default, so a minimal file only needs to set what it wants to change.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if fc.WindowSize > 0 {
		cfg.Sender.WindowSize = fc.WindowSize
	}
	if fc.MaxAttempts > 0 {
		cfg.Sender.MaxAttempts = fc.MaxAttempts
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return Config{}, err
		}
		cfg.Sender.Timeout = d
	}
	if fc.PLoss > 0 {
		cfg.Simulated.PLoss = fc.PLoss
	}
	if fc.PError > 0 {
		cfg.Simulated.PError = fc.PError
	}
	if fc.MaxDelay != "" {
		d, err := time.ParseDuration(fc.MaxDelay)
		if err != nil {
			return Config{}, err
		}
		cfg.Simulated.MaxDelay = d
	}
	if fc.Serial.Port != "" {
		cfg.UseSerial = true
		cfg.Serial = channel.DefaultSerialConfig(fc.Serial.Port)
		if fc.Serial.BaudRate > 0 {
			cfg.Serial.BaudRate = fc.Serial.BaudRate
		}
	}
	return cfg, nil
}
