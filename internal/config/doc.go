// Package config loads, normalizes, and validates the focusd TOML
// configuration.
//
// Load resolves the config path (explicit flag, ~/.config/focusd, or a
// project-local focusd.toml), decodes it over repository defaults, expands
// home-relative paths, and applies environment fallbacks for secrets
// (FOCUSD_CLASSIFIER_API_KEY) and identity (FOCUSD_USER). Validation rejects
// cadences that cannot produce a coherent session timeline.
package config
