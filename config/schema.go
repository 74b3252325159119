// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ValidateWithSchema validates a configuration file against the JSON
// schema, catching structural problems (wrong types, unknown layouts)
// before Load's semantic validation runs.
func ValidateWithSchema(configPath string) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Convert YAML to JSON for validation
	var configObj interface{}
	if err := yaml.Unmarshal(configData, &configObj); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	configBytes, err := json.Marshal(configObj)
	if err != nil {
		return fmt.Errorf("failed to convert config to JSON: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(configBytes))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		return formatValidationErrors(result.Errors())
	}
	return nil
}

// formatValidationErrors formats JSON schema validation errors into a readable message
func formatValidationErrors(errors []gojsonschema.ResultError) error {
	msg := "configuration validation errors:\n"
	for i, err := range errors {
		msg += fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field(), err.Description())
	}
	return fmt.Errorf("%s", msg)
}
