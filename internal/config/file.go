package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL        string `yaml:"database_url"`
	XMLTVBaseURL       string `yaml:"xmltv_base_url"`
	ServerPort         string `yaml:"server_port"`
	RedisURL           string `yaml:"redis_url"`
	UserAgent          string `yaml:"user_agent"`
	Timeout            string `yaml:"timeout"`
	TonightMinDuration string `yaml:"tonight_min_duration"`
}

// LoadFromFile loads config from a YAML file. database_url and
// xmltv_base_url are required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Config{
		DatabaseURL:        f.DatabaseURL,
		XMLTVBaseURL:       f.XMLTVBaseURL,
		ServerPort:         f.ServerPort,
		RedisURL:           f.RedisURL,
		UserAgent:          f.UserAgent,
		Timeout:            30 * time.Second,
		TonightMinDuration: 30 * time.Minute,
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	if f.TonightMinDuration != "" {
		if d, err := time.ParseDuration(f.TonightMinDuration); err == nil {
			c.TonightMinDuration = d
		}
	}
	return c.withDefaults()
}
