package chasmc

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the ambient knobs chasmc consults outside the core
// grammar itself. Structured the way lookbusy1344/arm-emulator's
// config.Config is: nested tables loaded with BurntSushi/toml, with a
// DefaultConfig usable with no file present at all.
type Config struct {
	Tabs struct {
		Width int `toml:"width"`
	} `toml:"tabs"`

	Diagnostics struct {
		WarnVoid bool `toml:"warn_void"`
	} `toml:"diagnostics"`

	Assembler struct {
		Assembler   string `toml:"assembler"`
		Linker      string `toml:"linker"`
		ExtraFlags  string `toml:"extra_flags"`
		LinkerFlags string `toml:"linker_flags"`
	} `toml:"assembler"`
}

// DefaultConfig returns chasmc's built-in defaults: tabs expand to 4
// columns (spec.md §3), void-statement warnings are off, and the
// assembler/linker default to the conventional NASM toolchain names.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Tabs.Width = 4
	cfg.Diagnostics.WarnVoid = false
	cfg.Assembler.Assembler = "nasm"
	cfg.Assembler.Linker = "ld"
	return cfg
}

// LoadConfig reads a TOML config file at path, overlaying it onto
// DefaultConfig. A missing file is not an error — chasmc runs fine
// with no config at all.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
