package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"summarize-pro/internal/resilience/circuitbreaker"
	"summarize-pro/internal/resilience/retry"
)

// Inference worker protocol. Messages are google.protobuf.Struct values so that
// no generated code is needed on either side.
const (
	GRPCServiceName  = "summarizepro.inference.v1.InferenceService"
	GRPCMethodLoad   = "/" + GRPCServiceName + "/Load"
	GRPCMethodRun    = "/" + GRPCServiceName + "/Run"
	GRPCMethodUnload = "/" + GRPCServiceName + "/Unload"
)

// Field names used in protocol messages.
const (
	FieldModel    = "model"
	FieldTask     = "task"
	FieldHandleID = "handle_id"
	FieldInput    = "input"
	FieldParams   = "params"
	FieldOutput   = "output"
)

const unloadTimeout = 10 * time.Second

// GRPCConfig configures the worker backend.
type GRPCConfig struct {
	// Address of the inference worker (host:port). Empty disables the backend.
	Address string

	// Timeout bounds a single Run call including retries.
	Timeout time.Duration
}

// GRPCBackend serves "grpc:<model>" identifiers by delegating to an inference
// worker process. Workers hold one model replica per handle and run one request
// at a time, so handles are not reentrant.
type GRPCBackend struct {
	conn           grpc.ClientConnInterface
	closer         func() error
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewGRPCBackend dials the worker. Dialing is lazy; connection problems surface on
// the first Open.
func NewGRPCBackend(cfg GRPCConfig, opts ...grpc.DialOption) (*GRPCBackend, error) {
	if cfg.Address == "" {
		return &GRPCBackend{}, nil
	}
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial inference worker %s: %w", cfg.Address, err)
	}
	b := NewGRPCBackendWithConn(conn, cfg.Timeout)
	b.closer = conn.Close
	return b, nil
}

// NewGRPCBackendWithConn wraps an existing connection.
func NewGRPCBackendWithConn(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCBackend {
	if timeout == 0 {
		timeout = defaultCallTimeout
	}
	return &GRPCBackend{
		conn:           conn,
		timeout:        timeout,
		circuitBreaker: circuitbreaker.New(circuitbreaker.GRPCInferenceConfig()),
		retryConfig:    retry.InferenceConfig(),
	}
}

// Name implements Backend.
func (b *GRPCBackend) Name() string { return "grpc" }

// Shutdown closes the connection if the backend dialed it.
func (b *GRPCBackend) Shutdown() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Open asks the worker to load the model and returns a handle bound to it.
func (b *GRPCBackend) Open(ctx context.Context, model string, task TaskKind) (Handle, error) {
	if b.conn == nil {
		return nil, fmt.Errorf("grpc: %w", ErrBackendNotConfigured)
	}
	req, err := structpb.NewStruct(map[string]any{
		FieldModel: model,
		FieldTask:  string(task),
	})
	if err != nil {
		return nil, err
	}
	resp := &structpb.Struct{}
	if err := b.invoke(ctx, GRPCMethodLoad, req, resp); err != nil {
		return nil, fmt.Errorf("grpc load %s: %w", model, err)
	}
	id := resp.GetFields()[FieldHandleID].GetStringValue()
	if id == "" {
		return nil, fmt.Errorf("grpc load %s: worker returned no handle id", model)
	}
	return &grpcHandle{backend: b, model: model, id: id}, nil
}

func (b *GRPCBackend) invoke(ctx context.Context, method string, req, resp *structpb.Struct) error {
	return retry.WithBackoff(ctx, b.retryConfig, func() error {
		_, err := b.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, b.conn.Invoke(ctx, method, req, resp)
		})
		if errors.Is(err, gobreaker.ErrOpenState) {
			return fmt.Errorf("inference worker unavailable: circuit breaker open: %w", err)
		}
		return err
	})
}

type grpcHandle struct {
	backend *GRPCBackend
	model   string
	id      string
}

func (h *grpcHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.backend.timeout)
	defer cancel()

	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldHandleID: structpb.NewStringValue(h.id),
		FieldInput:    structpb.NewStringValue(input),
		FieldParams:   structpb.NewStructValue(ParamsToStruct(p)),
	}}
	resp := &structpb.Struct{}
	if err := h.backend.invoke(ctx, GRPCMethodRun, req, resp); err != nil {
		return "", fmt.Errorf("grpc run %s: %w", h.model, err)
	}
	out := resp.GetFields()[FieldOutput].GetStringValue()
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

// Reentrant reports false: a worker replica processes one request at a time.
func (h *grpcHandle) Reentrant() bool { return false }

// Close releases the worker replica.
func (h *grpcHandle) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), unloadTimeout)
	defer cancel()
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldHandleID: structpb.NewStringValue(h.id),
	}}
	if err := h.backend.conn.Invoke(ctx, GRPCMethodUnload, req, &structpb.Struct{}); err != nil {
		return fmt.Errorf("grpc unload %s: %w", h.model, err)
	}
	return nil
}

// ParamsToStruct encodes decoding parameters for the wire.
func ParamsToStruct(p Params) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"max_length":         structpb.NewNumberValue(float64(p.MaxLength)),
		"min_length":         structpb.NewNumberValue(float64(p.MinLength)),
		"deterministic":      structpb.NewBoolValue(p.Deterministic),
		"beam_width":         structpb.NewNumberValue(float64(p.BeamWidth)),
		"length_penalty":     structpb.NewNumberValue(p.LengthPenalty),
		"early_stopping":     structpb.NewBoolValue(p.EarlyStopping),
		"no_repeat_ngram":    structpb.NewNumberValue(float64(p.NoRepeatNgram)),
		"repetition_penalty": structpb.NewNumberValue(p.RepetitionPenalty),
		"truncate":           structpb.NewBoolValue(p.Truncate),
		"prompt":             structpb.NewStringValue(p.Prompt),
	}}
}

// ParamsFromStruct is the inverse of ParamsToStruct. Missing fields decode to zero.
func ParamsFromStruct(s *structpb.Struct) Params {
	f := s.GetFields()
	return Params{
		MaxLength:         int(f["max_length"].GetNumberValue()),
		MinLength:         int(f["min_length"].GetNumberValue()),
		Deterministic:     f["deterministic"].GetBoolValue(),
		BeamWidth:         int(f["beam_width"].GetNumberValue()),
		LengthPenalty:     f["length_penalty"].GetNumberValue(),
		EarlyStopping:     f["early_stopping"].GetBoolValue(),
		NoRepeatNgram:     int(f["no_repeat_ngram"].GetNumberValue()),
		RepetitionPenalty: f["repetition_penalty"].GetNumberValue(),
		Truncate:          f["truncate"].GetBoolValue(),
		Prompt:            f["prompt"].GetStringValue(),
	}
}
