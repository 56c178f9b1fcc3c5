// Package config loads, caches and saves snake game presets.
//
// A preset is an engine.GameConfig stored as one JSON file per preset in a
// config directory. The file name without its extension is the preset id
// used by the API and MCP tools:
//
//	{
//	  "name": "classic",
//	  "description": "Classic board, speeds up with every food",
//	  "cols": 29,
//	  "rows": 30,
//	  "initial_interval_ms": 200,
//	  "min_interval_ms": 60,
//	  "speed_multiplier": 0.94,
//	  "initial_length": 3
//	}
//
// Every file is checked with engine.ValidateGameConfig on load and on save.
// Invalid presets are skipped by ListConfigs and reported as
// ErrInvalidConfig by LoadConfig.
//
// Default selection:
//
// classic.json is the default when present. Otherwise the first valid preset
// in directory order is used, and an empty directory falls back to the
// built-in classic rules.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fast, err := manager.LoadConfig("fast")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	presets, err := manager.ListConfigs()
package config
