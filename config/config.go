package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
	"github.com/kilianp07/warehouse-sim/core/metrics"
	"github.com/kilianp07/warehouse-sim/core/simulation"
	"github.com/kilianp07/warehouse-sim/infra/mqtt"
)

type Config struct {
	Simulation simulation.Params `json:"simulation"`
	Scenarios  ScenariosConfig   `json:"scenarios"`
	Metrics    metrics.Config    `json:"metrics"`
	Logging    logging.Config    `json:"logging"`
	LogLevel   string            `json:"log_level"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Sentry     SentryConfig      `json:"sentry"`
	Report     ReportConfig      `json:"report"`
	Events     EventsConfig      `json:"events"`
	API        APIConfig         `json:"api"`
}

// Load reads the configuration file at path, applies K_ prefixed
// environment overrides and fills defaults. An empty path loads defaults and
// the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Simulation.SetDefaults()
	c.Logging.SetDefaults()
	c.MQTT.SetDefaults()
	c.Report.SetDefaults()
	c.Events.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section. The single run parameters are checked when
// they are used, so a batch-only config may leave them empty.
func (c Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Report.Validate(); err != nil {
		return err
	}
	if c.Events.Buffer < 0 {
		return fmt.Errorf("events: buffer must not be negative")
	}
	return nil
}
