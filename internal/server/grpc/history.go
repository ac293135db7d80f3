package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	myriadv1 "github.com/rzbill/myriad/api/myriad/v1"
	"github.com/rzbill/myriad/internal/datalog"
	"github.com/rzbill/myriad/internal/runtime"
	"github.com/rzbill/myriad/pkg/log"
)

const historyServiceName = myriadv1.HistoryServiceName

type historySvc struct {
	myriadv1.UnimplementedHistoryServer
	rt  *runtime.Runtime
	log log.Logger
}

func widgetArg(req *structpb.Struct) (string, error) {
	id := req.GetFields()["widget"].GetStringValue()
	if id == "" {
		return "", status.Error(codes.InvalidArgument, "widget is required")
	}
	return id, nil
}

func summary(l *datalog.Logger) map[string]any {
	return map[string]any{
		"widget":  l.WidgetID(),
		"records": l.Len(),
		"usageKB": l.UsageString(),
		"limitKB": float64(l.LimitBytes()) / 1024,
	}
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func (s *historySvc) Log(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := widgetArg(req)
	if err != nil {
		return nil, err
	}
	l := s.rt.Registry().GetOrCreate(id)
	l.Log(req.GetFields()["payload"].GetStringValue())
	return toStruct(summary(l))
}

func (s *historySvc) Logs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := widgetArg(req)
	if err != nil {
		return nil, err
	}
	l := s.rt.Registry().GetOrCreate(id)
	recs := l.Logs()
	items := make([]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, map[string]any{"ts": r.TS, "payload": r.Payload})
	}
	out := summary(l)
	out["records"] = items
	return toStruct(out)
}

func (s *historySvc) Usage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := widgetArg(req)
	if err != nil {
		return nil, err
	}
	l := s.rt.Registry().GetOrCreate(id)
	n, err := s.rt.Store().Size(l.Key())
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	out := summary(l)
	delete(out, "records")
	out["bytes"] = n
	return toStruct(out)
}

func (s *historySvc) Clear(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := widgetArg(req)
	if err != nil {
		return nil, err
	}
	s.rt.Registry().GetOrCreate(id).Clear()
	s.log.Info("history cleared", log.Widget(id))
	return &structpb.Struct{}, nil
}

func (s *historySvc) SetLimit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := widgetArg(req)
	if err != nil {
		return nil, err
	}
	v, ok := req.GetFields()["limitKB"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "limitKB is required")
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return nil, status.Error(codes.InvalidArgument, "limitKB must be a number")
	}
	l := s.rt.Registry().GetOrCreateWithLimit(id, v.GetNumberValue())
	return toStruct(summary(l))
}
