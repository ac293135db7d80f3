// Package client provides the `myriad` command-line client.
//
// The CLI talks to the Myriad HTTP and gRPC endpoints to inspect and manage
// widget histories and dashboard widgets from a terminal.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc; BaseURLFromEnv reads MYRIAD_HTTP and
// defaults to http://127.0.0.1:8080. The gRPC address is read from the
// MYRIAD_GRPC environment variable (default 127.0.0.1:9090).
//
// Usage
//
//	myriad history log --widget temp --data 21.5
//	myriad history logs --widget temp --transport grpc
//	myriad history usage --widget temp
//	myriad history limit --widget temp 10
//	myriad history clear --widget temp
//	myriad history widgets
//
//	myriad widgets create --kind gauge --id temp --options '{"topic":"home/+/temp","loggingEnabled":true}'
//	myriad widgets interact --id lamp --action toggle
//	myriad widgets export --id readings > readings.csv
//	myriad dispatch --topic home/kitchen/temp --data 21.5
package client
