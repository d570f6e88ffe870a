package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// fileConfig mirrors the YAML config file. Pointer fields distinguish
// absent keys from zero values so the file only overrides what it names.
type fileConfig struct {
	WebhookURL         *string  `yaml:"webhookUrl"`
	ErrorRateThreshold *float64 `yaml:"errorRateThreshold"`
	WindowSize         *int     `yaml:"windowSize"`
	AlertCooldownSec   *int     `yaml:"alertCooldownSec"`
	LogFile            *string  `yaml:"logFile"`
	MaintenanceMode    *bool    `yaml:"maintenanceMode"`
	ActivePool         *string  `yaml:"activePool"`
	Listen             *string  `yaml:"listen"`
	HistoryDB          *string  `yaml:"historyDb"`
}

// ApplyFile overlays a YAML config file onto the config. The document is
// validated against the embedded JSON schema first; violations are
// startup-fatal.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.WebhookURL != nil {
		c.WebhookURL = *fc.WebhookURL
	}
	if fc.ErrorRateThreshold != nil {
		c.ErrorRateThreshold = *fc.ErrorRateThreshold
	}
	if fc.WindowSize != nil {
		c.WindowSize = *fc.WindowSize
	}
	if fc.AlertCooldownSec != nil {
		c.AlertCooldown = time.Duration(*fc.AlertCooldownSec) * time.Second
	}
	if fc.LogFile != nil {
		c.LogFile = *fc.LogFile
	}
	if fc.MaintenanceMode != nil {
		c.MaintenanceMode = *fc.MaintenanceMode
	}
	if fc.ActivePool != nil {
		c.ActivePool = *fc.ActivePool
	}
	if fc.Listen != nil {
		c.ListenAddr = *fc.Listen
	}
	if fc.HistoryDB != nil {
		c.HistoryDB = *fc.HistoryDB
	}

	return nil
}

// validateSchema checks a raw YAML document against the embedded schema.
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("failed to parse embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaDoc); err != nil {
		return fmt.Errorf("failed to load embedded schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}
