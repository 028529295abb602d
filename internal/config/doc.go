// Package config loads process configuration from an optional file and
// the environment. A Config is built once at startup and passed down.
package config
