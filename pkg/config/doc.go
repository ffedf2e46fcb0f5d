// Package config loads zcc preferences and manages project configuration.
//
// Preferences are layered with koanf, lowest precedence first: embedded
// defaults, the user rc file, the project rc file, ZCC_ environment
// variables and explicit overrides. A .env file in the project root is read
// before the environment layer without overriding variables already set.
//
// Project configuration (.zcc/config.yaml) is what packs modify when they
// install; see ProjectConfigStore.
package config
