package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestTOMLLoader_LoadFrom(t *testing.T) {
	mfs := NewMemFS()
	mfs.AddFile("/config.toml", `
[rope]
nodeCeiling = 128
maxFlattenBytes = 1048576

[store]
backend = "sqlite"
path = "/tmp/values.db"
`)

	config, err := NewTOMLLoaderWithFS(mfs, "/config.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(config, "rope.nodeCeiling"); !ok || val != int64(128) {
		t.Errorf("rope.nodeCeiling = %v (%T), want 128", val, val)
	}
	if val, ok := getByPath(config, "store.backend"); !ok || val != "sqlite" {
		t.Errorf("store.backend = %v, want sqlite", val)
	}
}

func TestTOMLLoader_MissingFile(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Errorf("missing file should not be an error, got %v", err)
	}
	if config != nil {
		t.Errorf("missing file should yield nil config, got %v", config)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	mfs := NewMemFS()
	mfs.AddFile("/bad.toml", "[rope\nnodeCeiling = ")

	_, err := NewTOMLLoaderWithFS(mfs, "/bad.toml").Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Path != "/bad.toml" {
		t.Errorf("ParseError.Path = %q", pe.Path)
	}
	if !strings.Contains(pe.Error(), "/bad.toml") {
		t.Errorf("error message %q should name the file", pe.Error())
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader("[logging]\nlevel = \"warn\"\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if val, _ := getByPath(config, "logging.level"); val != "warn" {
		t.Errorf("logging.level = %v, want warn", val)
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"rope":    map[string]any{"nodeCeiling": int64(2000), "maxLength": int64(10)},
		"logging": map[string]any{"level": "info"},
	}
	src := map[string]any{
		"rope":  map[string]any{"nodeCeiling": int64(50)},
		"store": map[string]any{"backend": "memory"},
	}

	merged := DeepMerge(dst, src)

	if val, _ := getByPath(merged, "rope.nodeCeiling"); val != int64(50) {
		t.Errorf("rope.nodeCeiling = %v, want 50", val)
	}
	if val, _ := getByPath(merged, "rope.maxLength"); val != int64(10) {
		t.Errorf("rope.maxLength = %v, want 10", val)
	}
	if val, _ := getByPath(merged, "store.backend"); val != "memory" {
		t.Errorf("store.backend = %v, want memory", val)
	}
	if val, _ := getByPath(merged, "logging.level"); val != "info" {
		t.Errorf("logging.level = %v, want info", val)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		yaml bool
	}{
		{"consrope.toml", false},
		{"consrope.yaml", true},
		{"consrope.YML", true},
		{"consrope", false},
	}
	for _, tt := range tests {
		_, isYAML := ForPath(NewMemFS(), tt.path).(*YAMLLoader)
		if isYAML != tt.yaml {
			t.Errorf("ForPath(%q) yaml = %v, want %v", tt.path, isYAML, tt.yaml)
		}
	}
}
