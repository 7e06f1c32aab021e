// Package config loads taskman settings from defaults, an optional YAML file
// and TASKMAN_* environment variables, then validates them with
// go-playground/validator before any component starts.
package config
