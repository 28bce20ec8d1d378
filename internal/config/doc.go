// Package config provides the configuration system for consrope.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← CONSROPE_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← consrope.toml or consrope.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Basic Usage
//
//	cfg, err := config.Load("consrope.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Rope.NodeCeiling)
//
// A missing file is not an error; the defaults and environment still apply.
// Unknown settings and out-of-range values are reported as *ValidationError.
package config
