package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default shared secret for mutating endpoints, inherited from the original
// deployment. A static password in source is only tolerable for the
// single-operator setup this serves; override it via config or env.
const defaultPassword = "HDberkah2025"

type Config struct {
	Addr     string `yaml:"addr"`
	DBFile   string `yaml:"db_file"`
	Password string `yaml:"password"`
}

// loadConfig reads the YAML file at path when it exists and fills the gaps
// with defaults and environment overrides (PORT, TIMER_DB, TIMER_PASSWORD).
// A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := Config{
		Addr:     "127.0.0.1:3000",
		DBFile:   "data.db",
		Password: defaultPassword,
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" && port != "0" {
		cfg.Addr = "127.0.0.1:" + port
	}
	if file := os.Getenv("TIMER_DB"); file != "" {
		cfg.DBFile = file
	}
	if pw := os.Getenv("TIMER_PASSWORD"); pw != "" {
		cfg.Password = pw
	}
	return cfg, nil
}
