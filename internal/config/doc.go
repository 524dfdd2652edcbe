// Package config provides configuration structures and utilities for locshare.
// It defines account credentials, the optional reference location, network
// settings, endpoint URLs and report preferences, and loads them from a YAML
// file, the environment (including .env files) and the OS keyring.
package config
