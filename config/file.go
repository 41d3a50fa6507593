package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML layout.  Every field is optional.
//
//	listen: true
//	port: 2180
//	bind: 127.0.0.1
//	timeout: 5m
//	prompt: "ops>"
//	banner: "maintenance console\r\n"
//	aliases:
//	  bye: quit
//	  ls: help
type fileConfig struct {
	Listen   bool              `yaml:"listen"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Bind     string            `yaml:"bind"`
	Timeout  string            `yaml:"timeout"`
	NoDNS    bool              `yaml:"no_dns"`
	Prompt   string            `yaml:"prompt"`
	Banner   string            `yaml:"banner"`
	NoPrompt bool              `yaml:"no_prompt"`
	Retries  int               `yaml:"retries"`
	Tunnel   string            `yaml:"tunnel"`
	SSHKey   string            `yaml:"ssh_key"`
	Trace    string            `yaml:"trace"`
	Aliases  map[string]string `yaml:"aliases"`
}

// LoadFile overlays the YAML file at path onto cfg.  Only fields present
// in the file override cfg.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return loadYAML(cfg, data)
}

func loadYAML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	if fc.Listen {
		cfg.Listen = true
	}
	if fc.Host != "" {
		cfg.Host = fc.Host
	}
	if fc.Port > 0 {
		cfg.LocalPort = fc.Port
	}
	if fc.Bind != "" {
		cfg.BindAddress = fc.Bind
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("config: timeout %q: %w", fc.Timeout, err)
		}
		cfg.Timeout = d
	}
	if fc.NoDNS {
		cfg.NoDNS = true
	}
	if fc.Prompt != "" {
		cfg.Prompt = fc.Prompt
	}
	if fc.Banner != "" {
		cfg.Banner = fc.Banner
	}
	if fc.NoPrompt {
		cfg.NoPrompt = true
	}
	if fc.Retries > 0 {
		cfg.Retries = fc.Retries
	}
	if fc.Tunnel != "" {
		cfg.TunnelSpec = fc.Tunnel
	}
	if fc.SSHKey != "" {
		cfg.SSHKeyPath = fc.SSHKey
	}
	if fc.Trace != "" {
		cfg.TraceFile = fc.Trace
	}
	if len(fc.Aliases) > 0 {
		if cfg.Aliases == nil {
			cfg.Aliases = make(map[string]string, len(fc.Aliases))
		}
		for alias, target := range fc.Aliases {
			cfg.Aliases[alias] = target
		}
	}
	return nil
}
