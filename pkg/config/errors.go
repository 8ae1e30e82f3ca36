package config

import "errors"

var (
	ErrParse     = errors.New("config.parse_failed")
	ErrLoadEnv   = errors.New("config.load_env_failed")
	ErrNilTarget = errors.New("config.nil_target")
)
