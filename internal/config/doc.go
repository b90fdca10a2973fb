// Package config loads, normalizes, and validates realitease configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, SPREADSHEET_ID and GOOGLE_APPLICATION_CREDENTIALS. The Config
// type centralizes every knob the pipeline stages and CLI need so credentials,
// the tabular store backend and per-stage behaviour are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
