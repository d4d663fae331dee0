// Package config loads, normalizes, and validates signframes configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GIF_BASE_URL and TRANSLATE_URL. The Config value is built once at process
// start and handed to each component constructor, so pipeline code never
// consults the environment on its own.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
