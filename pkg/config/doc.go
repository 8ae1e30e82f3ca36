// Package config fills configuration structs from the environment.
//
// Structs are annotated with caarlos0/env tags; nested structs are parsed
// recursively so one aggregate struct can hold the settings of every
// package:
//
//	type Config struct {
//		HTTP httpserver.Config
//		Pool slotpool.Config
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
//
// Load reads ./.env once per process when it exists and caches the parsed
// value per type. LoadEnv loads additional dotenv files explicitly; Parse
// reads from a map and is meant for tests.
package config
