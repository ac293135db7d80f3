// Package config provides loading and environment overlay for Myriad
// configuration. It exposes a Default() baseline that JSON or YAML files and
// MYRIAD_* variables refine.
//
// Example:
//
//	cfg, err := config.Load("/etc/myriad.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
