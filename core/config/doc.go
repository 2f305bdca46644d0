// Package config fills env-tagged structs from the process environment.
//
// On the first Load a .env file in the working directory is read into the
// environment (a missing file is fine), then caarlos0/env parses the struct.
// Results are cached per type, so every later Load of the same type returns
// the same values without touching the environment again.
//
//	var cfg topic.Config
//	config.MustLoad(&cfg)
//
//	root := topic.New(topic.WithConfig(cfg))
//	defer root.Close()
//
// Tests that change variables with t.Setenv call Reset[T] first, otherwise
// they read the cached value of an earlier test.
package config
