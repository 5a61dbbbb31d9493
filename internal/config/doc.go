// Package config loads and merges lens configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (LENS_ANALYZER, LENS_FORMAT, LENS_FAIL_ON, etc.),
//     including any set by a .env file in the working directory
//  3. Config file ($XDG_CONFIG_HOME/lens/config.yaml or config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField] to update a single dotted key such as "analyzer.path".
package config
