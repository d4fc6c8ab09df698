package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, env and unmarshal failures.
	ErrLoadConfig = errors.New("load config failed")
	// ErrWatchConfig is returned when the config file cannot be watched.
	ErrWatchConfig = errors.New("watch config failed")
)
