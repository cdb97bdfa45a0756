package margin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DecodeSettings parses broker settings, in JSON if data is a JSON object and
// in YAML otherwise, and validates them.
func DecodeSettings(data []byte) (BrokerSettings, error) {
	var s BrokerSettings
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return s, fmt.Errorf("parse settings as JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings as YAML: %w", err)
	}
	return s.Validate()
}

// EncodeSettings marshals the settings in YAML.
func EncodeSettings(s BrokerSettings) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}

// LoadSettings reads the settings file at path. A missing file yields the
// default settings.
func LoadSettings(path string) (BrokerSettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("settings file %q does not exist, using default settings", path)
		return DefaultSettings(), nil
	}
	if err != nil {
		return BrokerSettings{}, fmt.Errorf("read settings file: %w", err)
	}
	s, err := DecodeSettings(data)
	if err != nil {
		return s, fmt.Errorf("invalid settings file %q: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes the settings to path, in JSON when the extension is
// ".json" and in YAML otherwise.
func SaveSettings(path string, s BrokerSettings) error {
	var data []byte
	var err error
	if filepath.Ext(path) == ".json" {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = EncodeSettings(s)
	}
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
