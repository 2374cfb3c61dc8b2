package dispatch

import "fmt"

// Config defines dispatch-related settings.
type Config struct {
	TieBreak TieBreak `json:"tie_break"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TieBreak == "" {
		c.TieBreak = TieBreakEarliest
	}
}

// Validate checks the selection policy is known.
func (c Config) Validate() error {
	if _, err := ParseTieBreak(string(c.TieBreak)); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}
