// Package httpserver provides the REST gateway for Myriad: widget history
// endpoints, dashboard widget management, message dispatch, Prometheus
// metrics and a websocket stream of live widget updates.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
