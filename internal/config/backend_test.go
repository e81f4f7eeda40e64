package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lms", "config.json")

	b := openFileBackend(path)
	if err := b.SetString("api.base_url", "http://saved"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := b.SetInt("server.port", 4200); err != nil {
		t.Fatalf("SetInt: %v", err)
	}

	reloaded := openFileBackend(path)
	if v, ok, _ := reloaded.GetString("api.base_url"); !ok || v != "http://saved" {
		t.Errorf("api.base_url = %q (ok=%v)", v, ok)
	}
	if v, ok, err := reloaded.GetInt("server.port"); err != nil || !ok || v != 4200 {
		t.Errorf("server.port = %d (ok=%v, err=%v)", v, ok, err)
	}

	if err := reloaded.Delete("server.port"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := openFileBackend(path).GetInt("server.port"); ok {
		t.Error("server.port still saved after Delete")
	}
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b := openFileBackend(filepath.Join(dir, "config.json"))
	b.SetString("log.level", "debug")
	b.SetString("log.level", "warn")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		t.Errorf("dir holds %v, want only config.json", entries)
	}
}

func TestFileBackendMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := openFileBackend(path)
	if _, ok, _ := b.GetString("api.base_url"); ok {
		t.Error("expected no values from malformed file")
	}
}

func TestFileBackendWrongTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server.port": 4100.5, "api.base_url": 3}`), 0o600); err != nil {
		t.Fatal(err)
	}

	b := openFileBackend(path)
	if _, _, err := b.GetInt("server.port"); err == nil {
		t.Error("expected error for fractional integer")
	}
	if _, _, err := b.GetString("api.base_url"); err == nil {
		t.Error("expected error for numeric string key")
	}
}

func TestDefaultDataDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/srv/data")
	if got := defaultDataDir(); got != filepath.Join("/srv/data", "lms") {
		t.Errorf("defaultDataDir = %q", got)
	}
}
