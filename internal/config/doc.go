// Package config loads, normalizes, and validates murmur's TOML configuration.
package config
