// Package grpcserver hosts the gRPC server for Myriad, registering the
// standard grpc.health.v1 service and myriad.v1.History over the runtime's
// history registry.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":9090")
package grpcserver
