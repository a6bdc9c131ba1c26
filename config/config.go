/*
Package config loads runtime configuration for the attendance engine.

Configuration comes from, in increasing precedence: built-in defaults, an
optional fhr.yaml config file, and FHR_* environment variables. Rule
overrides merge onto the policy defaults and are validated as a whole, so
a bad threshold fails startup instead of silently mis-evaluating days.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fhr/attendance-engine/policy"
)

// Config holds all configuration for the engine and its surfaces.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	State   StateConfig   `mapstructure:"state"`
	Holiday HolidayConfig `mapstructure:"holiday"`
	Rules   RulesConfig   `mapstructure:"rules"`

	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StateConfig locates the ledger flat file. FHR_STATE_FILE overrides it.
type StateConfig struct {
	File string `mapstructure:"file"`
}

// HolidayConfig tunes the open-data holiday client.
type HolidayConfig struct {
	APIMaxRetries int           `mapstructure:"api_max_retries"`
	APIBackoff    time.Duration `mapstructure:"api_backoff"`
	APIMaxBackoff time.Duration `mapstructure:"api_max_backoff"`
}

// RulesConfig carries optional policy threshold overrides. Unset fields
// keep the policy defaults.
type RulesConfig struct {
	EarliestCheckIn string `mapstructure:"earliest_checkin"`
	LatestCheckIn   string `mapstructure:"latest_checkin"`
	LunchStart      string `mapstructure:"lunch_start"`
	LunchEnd        string `mapstructure:"lunch_end"`

	WorkHours  int `mapstructure:"work_hours"`
	LunchHours int `mapstructure:"lunch_hours"`

	MinOvertimeMinutes       int `mapstructure:"min_overtime_minutes"`
	OvertimeIncrementMinutes int `mapstructure:"overtime_increment_minutes"`

	ForgetPunchAllowancePerMonth int `mapstructure:"forget_punch_allowance_per_month"`
	ForgetPunchMaxMinutes        int `mapstructure:"forget_punch_max_minutes"`
}

// PolicyRules merges the configured overrides onto the policy defaults.
func (c RulesConfig) PolicyRules() (policy.Rules, error) {
	var o policy.Overrides
	if c.EarliestCheckIn != "" {
		o.EarliestCheckIn = &c.EarliestCheckIn
	}
	if c.LatestCheckIn != "" {
		o.LatestCheckIn = &c.LatestCheckIn
	}
	if c.LunchStart != "" {
		o.LunchStart = &c.LunchStart
	}
	if c.LunchEnd != "" {
		o.LunchEnd = &c.LunchEnd
	}
	if c.WorkHours != 0 {
		o.WorkHours = &c.WorkHours
	}
	if c.LunchHours != 0 {
		o.LunchHours = &c.LunchHours
	}
	if c.MinOvertimeMinutes != 0 {
		o.MinOvertimeMinutes = &c.MinOvertimeMinutes
	}
	if c.OvertimeIncrementMinutes != 0 {
		o.OvertimeIncrementMinutes = &c.OvertimeIncrementMinutes
	}
	if c.ForgetPunchAllowancePerMonth != 0 {
		o.ForgetPunchAllowancePerMonth = &c.ForgetPunchAllowancePerMonth
	}
	if c.ForgetPunchMaxMinutes != 0 {
		o.ForgetPunchMaxMinutes = &c.ForgetPunchMaxMinutes
	}
	return policy.Default().Apply(o)
}

// Load reads configuration from defaults, the optional fhr.yaml file, and
// FHR_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FHR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("fhr")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fhr")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Legacy knob, kept because operators already export it.
	if f := v.GetString("state_file"); f != "" {
		cfg.State.File = f
	}

	if _, err := cfg.Rules.PolicyRules(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8099)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("state.file", "attendance_state.json")

	v.SetDefault("holiday.api_max_retries", 3)
	v.SetDefault("holiday.api_backoff", 500*time.Millisecond)
	v.SetDefault("holiday.api_max_backoff", 8*time.Second)
}
