// Package serverrun exposes the Run entrypoint used by the CLI to start the
// Myriad runtime with gRPC and HTTP servers, handling lifecycle and shutdown.
//
// Example:
//
//	cfg, _ := serverrun.ResolveConfig("/etc/myriad.yaml")
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
