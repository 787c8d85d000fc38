package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsZeroValue(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d != (Defaults{}) {
		t.Fatalf("expected zero-value defaults for an empty path, got %+v", d)
	}
}

func TestLoadDecodesTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pigwar.toml")
	contents := `
addr = ":9000"
metrics_addr = ":9100"
history_db_path = "/tmp/pigwar.db"
placement_seconds = 60
turn_seconds = 20
buffer_seconds = 120
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults{
		Addr:          ":9000",
		MetricsAddr:   ":9100",
		HistoryDBPath: "/tmp/pigwar.db",
		PlacementSec:  60,
		TurnSec:       20,
		BufferSec:     120,
	}
	if d != want {
		t.Fatalf("expected %+v, got %+v", want, d)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error loading a nonexistent config path")
	}
}

func TestLoadMalformedTOMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error decoding malformed TOML")
	}
}
