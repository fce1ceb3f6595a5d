// Package config loads, validates, and exposes application configuration.
// Settings come from YAML files (configs/development.yaml,
// configs/production.yaml) layered with environment variables, with
// environment variables taking precedence.
//
// The Config struct groups settings by concern: Server (HTTP listener),
// CLI (REPL behavior), AI (provider credentials and call budget), Handlers
// (per-backend-kind defaults), Persistence (connections file location and
// seal key), and Security (CORS).
package config
