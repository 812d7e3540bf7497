// File: internal/config/humanoid_config.go
// This file defines the pacing parameters that make field filling and
// submission clicks look operator-driven rather than scripted.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// PacingConfig controls the randomized delays inserted between interactions.
type PacingConfig struct {
	// MinFieldDelay and MaxFieldDelay bound the pause after every field fill.
	MinFieldDelay time.Duration `mapstructure:"min" yaml:"min"`
	MaxFieldDelay time.Duration `mapstructure:"max" yaml:"max"`
	// ClickPause is the settle time between scrolling a control into view and clicking it.
	ClickPause time.Duration `mapstructure:"click_pause" yaml:"click_pause"`
}

// Validate checks that the delay window is well formed.
func (p *PacingConfig) Validate() error {
	if p.MinFieldDelay < 0 || p.MaxFieldDelay < 0 || p.ClickPause < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}
	if p.MinFieldDelay > p.MaxFieldDelay {
		return fmt.Errorf("pacing.min (%s) must not exceed pacing.max (%s)", p.MinFieldDelay, p.MaxFieldDelay)
	}
	return nil
}

func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("pacing.min", "300ms")
	v.SetDefault("pacing.max", "1s")
	v.SetDefault("pacing.click_pause", "50ms")
}
