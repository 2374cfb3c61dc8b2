package config

import "fmt"

// ScenariosConfig selects the batch to run.
type ScenariosConfig struct {
	// File overrides the embedded scenario table.
	File string `json:"file"`
	// Names restricts the batch to these scenarios, in this order.
	Names []string `json:"names"`
}

// ReportConfig defines where batch reports are written.
type ReportConfig struct {
	Dir     string   `json:"dir"`
	Formats []string `json:"formats"`
}

// SetDefaults applies sane defaults.
func (c *ReportConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "reports"
	}
	if c.Formats == nil {
		c.Formats = []string{"csv", "json", "html"}
	}
}

// Validate checks the formats are known.
func (c ReportConfig) Validate() error {
	for _, f := range c.Formats {
		switch f {
		case "csv", "json", "html":
		default:
			return fmt.Errorf("report: unknown format %q", f)
		}
	}
	return nil
}

// EventsConfig sizes the event bus.
type EventsConfig struct {
	Buffer int `json:"buffer"`
}

// SetDefaults applies sane defaults.
func (c *EventsConfig) SetDefaults() {
	if c.Buffer == 0 {
		c.Buffer = 1024
	}
}

// APIConfig configures the assignment log HTTP server.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
