package fleet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Definition is the indexed part of a monitor document. The rest of the
// document is kept opaque.
type Definition struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// ParseDefinition validates a monitor document and extracts its indexed
// fields. A missing type defaults to MonitorType.
func ParseDefinition(body json.RawMessage) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(body, &def); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrInvalidMonitor, err)
	}
	if strings.TrimSpace(def.Name) == "" {
		return Definition{}, fmt.Errorf("%w: name is required", ErrInvalidMonitor)
	}
	if def.Type == "" {
		def.Type = MonitorType
	}
	return def, nil
}
