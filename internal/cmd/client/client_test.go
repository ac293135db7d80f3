package client

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	myriadv1 "github.com/rzbill/myriad/api/myriad/v1"
	cfgpkg "github.com/rzbill/myriad/internal/config"
	"github.com/rzbill/myriad/internal/runtime"
	httpserver "github.com/rzbill/myriad/internal/server/http"
)

// --- gRPC history CLI tests ---

type historyStub struct {
	myriadv1.UnimplementedHistoryServer
	logged  []string
	cleared int
}

func (s *historyStub) Log(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logged = append(s.logged, req.GetFields()["payload"].GetStringValue())
	return structpb.NewStruct(map[string]any{"widget": "w", "records": len(s.logged), "usageKB": "0.05"})
}

func (s *historyStub) Logs(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"widget": req.GetFields()["widget"].GetStringValue(),
		"records": []any{
			map[string]any{"ts": int64(1_700_000_000_000), "payload": "first"},
			map[string]any{"ts": int64(1_700_000_001_000), "payload": "second"},
		},
		"usageKB": "0.08",
	})
}

func (s *historyStub) Clear(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	s.cleared++
	return &structpb.Struct{}, nil
}

func startGRPCStub(t *testing.T, svc myriadv1.HistoryServer) (addr string, stop func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	gs := grpc.NewServer()
	myriadv1.RegisterHistoryServer(gs, svc)
	done := make(chan struct{})
	go func() {
		_ = gs.Serve(l)
		close(done)
	}()
	stop = func() {
		gs.GracefulStop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			gs.Stop()
		}
	}
	return l.Addr().String(), stop
}

func execute(t *testing.T, baseURL BaseURLFunc, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(baseURL)
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestHistoryLogsGRPC(t *testing.T) {
	stub := &historyStub{}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("MYRIAD_GRPC", addr)

	out, err := execute(t, BaseURLFromEnv, "history", "logs", "--transport", "grpc", "--widget", "w")
	if err != nil {
		t.Fatalf("execute: %v (%s)", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "\tfirst") || !strings.HasPrefix(lines[0], "2023-11-14T22:13:20") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestHistoryLogAndClearGRPC(t *testing.T) {
	stub := &historyStub{}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("MYRIAD_GRPC", addr)

	out, err := execute(t, BaseURLFromEnv, "history", "log", "--transport", "grpc", "--widget", "w", "--data", "hi")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out, "records: 1 usage: 0.05 KB") || len(stub.logged) != 1 || stub.logged[0] != "hi" {
		t.Fatalf("unexpected: %q %v", out, stub.logged)
	}
	if _, err := execute(t, BaseURLFromEnv, "history", "clear", "--transport", "grpc", "--widget", "w"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if stub.cleared != 1 {
		t.Fatalf("clear not called")
	}
	if _, err := execute(t, BaseURLFromEnv, "history", "usage", "--transport", "grpc", "--widget", "w"); err == nil {
		t.Fatalf("expected Unimplemented from the stub")
	}
}

func TestHistoryRequiresWidget(t *testing.T) {
	if _, err := execute(t, BaseURLFromEnv, "history", "logs"); err == nil || !strings.Contains(err.Error(), "--widget") {
		t.Fatalf("expected --widget error, got %v", err)
	}
	if _, err := execute(t, BaseURLFromEnv, "history", "logs", "--widget", "w", "--transport", "smoke"); err == nil {
		t.Fatalf("expected transport error")
	}
}

// --- HTTP CLI tests against a live server ---

func startHTTP(t *testing.T) BaseURLFunc {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = "memory"
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	ts := httptest.NewServer(httpserver.New(rt, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = rt.Close()
	})
	return func() string { return ts.URL }
}

func TestHistoryOverHTTP(t *testing.T) {
	base := startHTTP(t)
	for _, p := range []string{"a", "b", "c"} {
		if _, err := execute(t, base, "history", "log", "--widget", "w1", "--data", p); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	out, err := execute(t, base, "history", "limit", "--widget", "w1", "0.05")
	if err != nil {
		t.Fatalf("limit: %v", err)
	}
	if !strings.HasPrefix(out, "records: 1 ") {
		t.Fatalf("limit output: %q", out)
	}
	out, err = execute(t, base, "history", "logs", "--widget", "w1", "--json")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out, `"payload": "c"`) || strings.Contains(out, `"payload": "a"`) {
		t.Fatalf("oldest records should be evicted: %s", out)
	}
	out, err = execute(t, base, "history", "widgets")
	if err != nil || strings.TrimSpace(out) != "w1" {
		t.Fatalf("widgets: %q %v", out, err)
	}
}

func TestWidgetsAndDispatchOverHTTP(t *testing.T) {
	base := startHTTP(t)
	if _, err := execute(t, base, "widgets", "create", "--kind", "table", "--id", "rows", "--options", `{"topic":"db/rows","loggingEnabled":true}`); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := execute(t, base, "dispatch", "--topic", "db/rows", "--data", `{"name":"a","n":1}`)
	if err != nil || !strings.Contains(out, "delivered: 1") {
		t.Fatalf("dispatch: %q %v", out, err)
	}
	out, err = execute(t, base, "widgets", "export", "--id", "rows")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out != "n,name\r\n1,a\r\n" {
		t.Fatalf("csv: %q", out)
	}
	if _, err := execute(t, base, "widgets", "state", "--id", "missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404, got %v", err)
	}
	if _, err := execute(t, base, "widgets", "create", "--options", "{nope"); err == nil {
		t.Fatalf("expected options error")
	}
}
