// Package config loads and validates the service configuration from three
// layered sources: environment variables, command-line flags, and an optional
// JSON file, merged in that order of precedence with built-in defaults
// filling whatever remains.
package config
