// Package specfile parses API specification documents.
//
// Files are decoded by extension: .json via encoding/json, .yaml and
// .yml via YAML. Parsing is best-effort by design — monitors emit
// events even for documents that fail to parse, so callers treat an
// error here as "content unavailable", never as fatal.
package specfile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes raw specification bytes into a generic document.
// The path only selects the decoder; it is not read.
func Parse(path string, raw []byte) (map[string]any, error) {
	var doc map[string]any

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}
