// Package labels loads the ordered class-name mapping the classifier
// was trained against.
package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Set is the ordered list of class names. The position of a name is the
// model output index it corresponds to.
type Set []string

// Load reads a class mapping file: a JSON object whose keys are the
// stringified output indices ("0", "1", ...) and whose values are the
// class names. The indices must form a contiguous range starting at 0.
func Load(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label mapping: %w", err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse label mapping: %w", err)
	}

	if len(mapping) == 0 {
		return nil, fmt.Errorf("label mapping %s is empty", path)
	}

	set := make(Set, len(mapping))
	for key, name := range mapping {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("label mapping has non-numeric index %q", key)
		}
		if idx < 0 || idx >= len(mapping) {
			return nil, fmt.Errorf("label mapping index %d out of range [0,%d)", idx, len(mapping))
		}
		if set[idx] != "" {
			return nil, fmt.Errorf("label mapping has duplicate index %d", idx)
		}
		if name == "" {
			return nil, fmt.Errorf("label mapping index %d has empty class name", idx)
		}
		set[idx] = name
	}

	// Duplicate keys cannot collide after the checks above, so any
	// remaining hole means the index range was not contiguous.
	for i, name := range set {
		if name == "" {
			return nil, fmt.Errorf("label mapping is missing index %d", i)
		}
	}

	return set, nil
}
