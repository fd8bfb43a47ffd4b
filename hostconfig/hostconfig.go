// Package hostconfig parses the bootstrap configuration a host process
// loads before constructing a scanner.Scanner: which directories a
// local.Loader should watch, and which scanner.Flag bits to pass to every
// Scan call (SPEC_FULL section 1 expansion). It is deliberately small — the
// scan engine itself takes no configuration beyond what this package
// exposes.
package hostconfig

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hostplane/pluginfw/scanner"
)

// Config is the parsed bootstrap configuration.
type Config struct {
	// Directories are the filesystem paths a local.Loader should register,
	// in order.
	Directories []string

	// Watch enables a Watcher over Directories, re-scanning on change.
	Watch bool

	Upgrade          bool
	StopAllOnInstall bool
	StopAllOnUpgrade bool
	RestartActive    bool

	// LogLevel is one of "debug", "info", "warn", "error" (spec logging.Level
	// naming); empty means the host's own default.
	LogLevel string

	// LogFormat is "json" or "text"; empty means the host's own default.
	LogFormat string
}

// Flags translates the boolean scan options into a scanner.Flag bitmask.
func (c Config) Flags() scanner.Flag {
	var f scanner.Flag
	if c.Upgrade {
		f |= scanner.Upgrade
	}
	if c.StopAllOnInstall {
		f |= scanner.StopAllOnInstall
	}
	if c.StopAllOnUpgrade {
		f |= scanner.StopAllOnUpgrade
	}
	if c.RestartActive {
		f |= scanner.RestartActive
	}
	return f
}

// Load reads configuration from path (YAML or JSON, detected by viper from
// the file extension) with the given defaults pre-populated, so a host can
// ship a config file that only overrides what it cares about.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("watch", false)
	v.SetDefault("upgrade", true)
	v.SetDefault("stop_all_on_install", false)
	v.SetDefault("stop_all_on_upgrade", false)
	v.SetDefault("restart_active", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("hostconfig: %s: %w", path, err)
	}

	cfg := &Config{
		Directories:      v.GetStringSlice("directories"),
		Watch:            v.GetBool("watch"),
		Upgrade:          v.GetBool("upgrade"),
		StopAllOnInstall: v.GetBool("stop_all_on_install"),
		StopAllOnUpgrade: v.GetBool("stop_all_on_upgrade"),
		RestartActive:    v.GetBool("restart_active"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
	}
	if len(cfg.Directories) == 0 {
		return nil, fmt.Errorf("hostconfig: %s: no directories configured", path)
	}
	return cfg, nil
}
