// Package runtime wires storage, the history registry and the dashboard
// into a single-node Myriad instance. It exposes Open/Close, a health check,
// and accessors used by the HTTP and gRPC servers.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Storage.DataDir = "./data"
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	rt.Registry().GetOrCreate("temp").Log("21.5")
package runtime
