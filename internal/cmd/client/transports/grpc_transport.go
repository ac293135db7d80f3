// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	myriadv1 "github.com/rzbill/myriad/api/myriad/v1"
)

// GrpcTransport implements HistoryTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

type historyCall func(myriadv1.HistoryClient, context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

// call invokes one History method and decodes the response into out.
func (t *GrpcTransport) call(ctx context.Context, method historyCall, in map[string]any, out any) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	req, err := structpb.NewStruct(in)
	if err != nil {
		return err
	}
	res, err := method(myriadv1.NewHistoryClient(conn), ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	b, err := protojson.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Logs returns a widget's records oldest first.
func (t *GrpcTransport) Logs(ctx context.Context, widget string) (History, error) {
	var h History
	err := t.call(ctx, myriadv1.HistoryClient.Logs, map[string]any{"widget": widget}, &h)
	return h, err
}

// Log appends a payload to a widget history.
func (t *GrpcTransport) Log(ctx context.Context, widget, payload string) (Summary, error) {
	var s Summary
	err := t.call(ctx, myriadv1.HistoryClient.Log, map[string]any{"widget": widget, "payload": payload}, &s)
	return s, err
}

// Usage reports a widget history's stored size.
func (t *GrpcTransport) Usage(ctx context.Context, widget string) (Usage, error) {
	var u Usage
	err := t.call(ctx, myriadv1.HistoryClient.Usage, map[string]any{"widget": widget}, &u)
	return u, err
}

// Clear empties a widget history.
func (t *GrpcTransport) Clear(ctx context.Context, widget string) error {
	return t.call(ctx, myriadv1.HistoryClient.Clear, map[string]any{"widget": widget}, nil)
}

// SetLimit changes a widget history's budget.
func (t *GrpcTransport) SetLimit(ctx context.Context, widget string, limitKB float64) (Summary, error) {
	var s Summary
	err := t.call(ctx, myriadv1.HistoryClient.SetLimit, map[string]any{"widget": widget, "limitKB": limitKB}, &s)
	return s, err
}
