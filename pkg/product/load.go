package product

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRaw reads a raw product record from a JSON or YAML file and validates it.
// The format is chosen by extension; anything other than .yaml/.yml is read as JSON.
func LoadRaw(path string) (RawProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawProduct{}, fmt.Errorf("failed to read product file: %w", err)
	}
	return DecodeRaw(data, filepath.Ext(path))
}

// DecodeRaw decodes a raw record; ext selects YAML (".yaml", ".yml") or JSON.
// The record is validated before it is decoded into a RawProduct.
func DecodeRaw(data []byte, ext string) (RawProduct, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return RawProduct{}, fmt.Errorf("failed to parse product YAML: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return RawProduct{}, fmt.Errorf("failed to convert product YAML: %w", err)
		}
		data = converted
	default:
		if !json.Valid(data) {
			return RawProduct{}, fmt.Errorf("failed to parse product JSON: invalid JSON")
		}
	}

	if err := Validate(KindRaw, data); err != nil {
		return RawProduct{}, err
	}

	var raw RawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawProduct{}, fmt.Errorf("failed to parse product JSON: %w", err)
	}
	return raw, nil
}
