// Package config loads optional on-disk server defaults. Grounded on
// go-kgp's conf.go/conf/io.go: a flat TOML file decoded straight into a
// plain struct, with every field meaningful when left at its zero
// value (server hardcodes the same fallback regardless of whether the
// file is present).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Defaults holds the on-disk server defaults. cmd/pigwarserver applies
// Addr, MetricsAddr and HistoryDBPath, each falling back to its
// hardcoded default when zero; PlacementSec, TurnSec and BufferSec are
// decoded but not applied to rooms.
type Defaults struct {
	Addr          string `toml:"addr"`
	MetricsAddr   string `toml:"metrics_addr"`
	HistoryDBPath string `toml:"history_db_path"`

	PlacementSec uint32 `toml:"placement_seconds"`
	TurnSec      uint32 `toml:"turn_seconds"`
	BufferSec    uint32 `toml:"buffer_seconds"`
}

// Load decodes path into a Defaults. An empty path returns zero Defaults
// and no error, so the file stays optional; a path naming a missing or
// malformed file is an error.
func Load(path string) (Defaults, error) {
	var d Defaults
	if path == "" {
		return d, nil
	}
	_, err := toml.DecodeFile(path, &d)
	if err != nil {
		return Defaults{}, fmt.Errorf("config: %w", err)
	}
	return d, nil
}
