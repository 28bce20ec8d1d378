package loader

import (
	"errors"
	"testing"
)

func TestYAMLLoader_LoadFrom(t *testing.T) {
	mfs := NewMemFS()
	mfs.AddFile("/config.yaml", `
rope:
  nodeCeiling: 64
logging:
  level: debug
metrics:
  enabled: true
`)

	config, err := NewYAMLLoaderWithFS(mfs, "/config.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(config, "rope.nodeCeiling"); !ok || val != 64 {
		t.Errorf("rope.nodeCeiling = %v (%T), want 64", val, val)
	}
	if val, _ := getByPath(config, "logging.level"); val != "debug" {
		t.Errorf("logging.level = %v, want debug", val)
	}
	if val, _ := getByPath(config, "metrics.enabled"); val != true {
		t.Errorf("metrics.enabled = %v, want true", val)
	}
}

func TestYAMLLoader_MissingFile(t *testing.T) {
	config, err := NewYAMLLoaderWithFS(NewMemFS(), "/nope.yaml").Load()
	if err != nil || config != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", config, err)
	}
}

func TestYAMLLoader_ParseError(t *testing.T) {
	mfs := NewMemFS()
	mfs.AddFile("/bad.yaml", "rope: [unterminated\n")

	_, err := NewYAMLLoaderWithFS(mfs, "/bad.yaml").Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}
