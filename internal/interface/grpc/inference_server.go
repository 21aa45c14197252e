// Package grpc exposes locally loaded models to other processes over gRPC.
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"summarize-pro/internal/inference"
)

// InferenceService is the server side of the inference worker protocol.
type InferenceService interface {
	Load(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Unload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// InferenceServiceDesc describes the service for grpc.Server registration.
var InferenceServiceDesc = grpc.ServiceDesc{
	ServiceName: inference.GRPCServiceName,
	HandlerType: (*InferenceService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Load", Handler: unaryHandler(inference.GRPCMethodLoad, InferenceService.Load)},
		{MethodName: "Run", Handler: unaryHandler(inference.GRPCMethodRun, InferenceService.Run)},
		{MethodName: "Unload", Handler: unaryHandler(inference.GRPCMethodUnload, InferenceService.Unload)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "summarizepro/inference/v1/inference.proto",
}

// RegisterInferenceServer registers srv on s.
func RegisterInferenceServer(s grpc.ServiceRegistrar, srv InferenceService) {
	s.RegisterService(&InferenceServiceDesc, srv)
}

type unaryCall func(InferenceService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		svc := srv.(InferenceService)
		if interceptor == nil {
			return call(svc, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(svc, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// InferenceServer hands out model handles to remote callers. Every Load creates a
// dedicated handle; callers release it with Unload.
type InferenceServer struct {
	loader     inference.Loader
	maxHandles int
	runTimeout time.Duration

	mu      sync.Mutex
	handles map[string]loadedHandle
}

type loadedHandle struct {
	model  string
	handle inference.Handle
}

// Option configures an InferenceServer.
type Option func(*InferenceServer)

// WithMaxHandles rejects Load with ResourceExhausted once n handles are live.
// n <= 0 means unbounded.
func WithMaxHandles(n int) Option {
	return func(s *InferenceServer) { s.maxHandles = n }
}

// WithRunTimeout bounds each Run call in addition to the caller's deadline.
func WithRunTimeout(d time.Duration) Option {
	return func(s *InferenceServer) { s.runTimeout = d }
}

// NewInferenceServer creates a server that loads models through loader.
func NewInferenceServer(loader inference.Loader, opts ...Option) *InferenceServer {
	s := &InferenceServer{loader: loader, handles: make(map[string]loadedHandle)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InferenceServer) full() bool {
	if s.maxHandles <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles) >= s.maxHandles
}

// Load loads a model and returns its handle id.
func (s *InferenceServer) Load(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	model := fields[inference.FieldModel].GetStringValue()
	task := inference.TaskKind(fields[inference.FieldTask].GetStringValue())

	if model == "" {
		return nil, status.Error(codes.InvalidArgument, "model cannot be empty")
	}
	if !task.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "invalid task: %q", task)
	}

	if s.full() {
		return nil, status.Errorf(codes.ResourceExhausted, "handle limit %d reached", s.maxHandles)
	}

	h, err := s.loader.Load(ctx, model, task)
	if err != nil {
		slog.Error("failed to load model",
			slog.String("model", model),
			slog.String("task", string(task)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, inference.ErrUnsupportedTask) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Errorf(codes.FailedPrecondition, "load %s: %v", model, err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.handles[id] = loadedHandle{model: model, handle: h}
	s.mu.Unlock()

	slog.Info("model loaded",
		slog.String("model", model),
		slog.String("task", string(task)),
		slog.String("handle_id", id),
	)
	return structpb.NewStruct(map[string]any{inference.FieldHandleID: id})
}

// Run executes the model bound to handle_id.
func (s *InferenceServer) Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	id := fields[inference.FieldHandleID].GetStringValue()

	s.mu.Lock()
	lh, ok := s.handles[id]
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown handle: %q", id)
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	params := inference.ParamsFromStruct(fields[inference.FieldParams].GetStructValue())
	out, err := lh.handle.Run(ctx, fields[inference.FieldInput].GetStringValue(), params)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		case errors.Is(err, inference.ErrHandleClosed):
			return nil, status.Errorf(codes.NotFound, "handle %q closed", id)
		}
		slog.Error("inference failed",
			slog.String("model", lh.model),
			slog.String("handle_id", id),
			slog.String("error", err.Error()),
		)
		return nil, status.Error(codes.Internal, "inference failed")
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		inference.FieldOutput: structpb.NewStringValue(out),
	}}, nil
}

// Unload releases a handle. Unknown ids are ignored so that retries are harmless.
func (s *InferenceServer) Unload(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()[inference.FieldHandleID].GetStringValue()

	s.mu.Lock()
	lh, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if ok {
		if err := lh.handle.Close(); err != nil {
			slog.Warn("failed to close model handle",
				slog.String("model", lh.model),
				slog.String("handle_id", id),
				slog.String("error", err.Error()),
			)
		}
		slog.Info("model unloaded", slog.String("model", lh.model), slog.String("handle_id", id))
	}
	return &structpb.Struct{}, nil
}

// Loaded returns the number of live handles.
func (s *InferenceServer) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Close releases every handle. Called on worker shutdown.
func (s *InferenceServer) Close() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]loadedHandle)
	s.mu.Unlock()

	for id, lh := range handles {
		if err := lh.handle.Close(); err != nil {
			slog.Warn("failed to close model handle",
				slog.String("model", lh.model),
				slog.String("handle_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
}
