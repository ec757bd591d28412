// Package config loads exline's settings.
//
// Settings come from three layers, each overriding the one before:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. EXLINE_<SECTION>_<KEY> environment variables
//
// Manager holds the active Config and can reload it when the file changes on
// disk, so settings such as delegation.enabled take effect without a restart.
package config
