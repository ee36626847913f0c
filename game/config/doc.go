// Package config provides preset management for the picture puzzle.
//
// The config package handles:
//   - Loading puzzle presets from JSON or YAML files
//   - Preset validation
//   - Default preset selection
//   - Preset discovery, listing and live reload
//
// Preset Format:
//
// Presets are stored in the configs directory, one file per preset. The file
// name without its extension is the preset ID:
//
//	{
//	  "name": "Classic",
//	  "grid_size": 3,
//	  "time_limit": 120,
//	  "image_url": "/img/lighthouse.jpg"
//	}
//
// A missing time_limit makes the preset untimed.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadConfig("easy")
//	defaultPreset, err := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
//	// Drop cached presets whenever the directory changes
//	go manager.Watch(ctx)
package config
