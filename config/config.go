// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package config provides configuration management for the tariff engine.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Octopus OctopusConfig `yaml:"octopus"`
	Billing BillingConfig `yaml:"billing"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// OctopusConfig holds Octopus Energy API settings
type OctopusConfig struct {
	APIKey       string `yaml:"api_key" validate:"required"`
	AccountID    string `yaml:"account_id" validate:"required"`
	Mpan         string `yaml:"mpan"`
	SerialNumber string `yaml:"serial_number"`
}

// BillingConfig holds billing-cycle settings
type BillingConfig struct {
	// Day anchors monthly reporting periods; days beyond a month's
	// length clamp to its last day.
	Day int `yaml:"day" validate:"min=1,max=31"`
}

// CacheConfig holds calculation store settings
type CacheConfig struct {
	Directory string `yaml:"directory"`
	InMemory  bool   `yaml:"in_memory"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

var validate = validator.New()

// Load reads configuration from a YAML file and applies environment
// variable overrides, defaults and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvironmentOverrides() {
	if key := os.Getenv("OCTOPUS_API_KEY"); key != "" {
		c.Octopus.APIKey = key
	}
	if account := os.Getenv("OCTOPUS_ACCOUNT_ID"); account != "" {
		c.Octopus.AccountID = account
	}
	if mpan := os.Getenv("OCTOPUS_MPAN"); mpan != "" {
		c.Octopus.Mpan = mpan
	}
	if serial := os.Getenv("OCTOPUS_SERIAL_NUMBER"); serial != "" {
		c.Octopus.SerialNumber = serial
	}
	if day := os.Getenv("BILLING_DAY"); day != "" {
		parsed, parseErr := strconv.Atoi(day)
		if parseErr == nil {
			c.Billing.Day = parsed
		} else {
			fmt.Fprintf(os.Stderr, "Warning: Failed to parse BILLING_DAY '%s': %v\n", day, parseErr)
		}
	}
	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		c.Cache.Directory = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// setDefaults sets default values for configuration fields if not provided
func (c *Config) setDefaults() {
	if c.Billing.Day == 0 {
		c.Billing.Day = 1
	}
	if c.Server.Port == "" {
		c.Server.Port = "8090"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("field %s failed on the %q rule", first.Namespace(), first.Tag())
		}
		return err
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
