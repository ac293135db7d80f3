package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/rzbill/myriad/internal/cmd/client/transports"
)

// grpcAddrFromEnv returns the gRPC server address from MYRIAD_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("MYRIAD_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:9090"
}

// dialGRPCContext dials the Myriad gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(ctx context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// getTransport picks the history transport named by --transport.
func getTransport(name string, baseURL BaseURLFunc) (transports.HistoryTransport, error) {
	switch name {
	case "", "http":
		return transports.NewHttpTransport(baseURL), nil
	case "grpc":
		return transports.NewGrpcTransport(dialGRPCContext), nil
	default:
		return nil, fmt.Errorf("invalid --transport %q; use http|grpc", name)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
