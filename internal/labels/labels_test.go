package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "class_mapping.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write mapping file: %v", err)
	}
	return path
}

func TestLoadValidMapping(t *testing.T) {
	path := writeMapping(t, `{"0": "Acer rubrum", "1": "Quercus alba", "2": "Betula lenta"}`)

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := []string{"Acer rubrum", "Quercus alba", "Betula lenta"}
	if len(set) != len(expected) {
		t.Fatalf("Expected %d labels, got %d", len(expected), len(set))
	}
	for i, name := range expected {
		if set[i] != name {
			t.Errorf("set[%d] = %q, expected %q", i, set[i], name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeMapping(t, `{"0": "Acer rubrum"`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
}

func TestLoadEmptyMapping(t *testing.T) {
	path := writeMapping(t, `{}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for empty mapping")
	}
}

func TestLoadNonNumericIndex(t *testing.T) {
	path := writeMapping(t, `{"0": "Acer rubrum", "oak": "Quercus alba"}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for non-numeric index")
	}
}

func TestLoadNonContiguousIndices(t *testing.T) {
	path := writeMapping(t, `{"0": "Acer rubrum", "2": "Betula lenta"}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for non-contiguous indices")
	}
}

func TestLoadEmptyClassName(t *testing.T) {
	path := writeMapping(t, `{"0": "Acer rubrum", "1": ""}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for empty class name")
	}
}
