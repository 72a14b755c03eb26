package grpc

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.dispatch(ctx, models.OperationCreate, req)
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.dispatch(ctx, models.OperationUpdate, req)
}

func (s *GRPCServer) Read(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.dispatch(ctx, models.OperationRead, req)
}

// dispatch returns the envelope on success. On failure it returns
// codes.Internal with the error text, carrying the envelope as a detail.
func (s *GRPCServer) dispatch(ctx context.Context, op models.Operation, req *structpb.Struct) (*structpb.Struct, error) {
	resp := s.dispatcher.Dispatch(ctx, models.Request{
		Operation:     op,
		Authorization: authorizationFromContext(ctx),
		Body:          req.AsMap(),
	})

	env, err := envelopeToStruct(resp.Envelope)
	if err != nil {
		s.logger.Error(ctx, "envelope encoding failed", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	if resp.Status == models.StatusOK {
		return env, nil
	}

	st := status.New(codes.Internal, resp.Envelope.Error)
	if withDetails, err := st.WithDetails(env); err == nil {
		st = withDetails
	}
	return nil, st.Err()
}

func authorizationFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func envelopeToStruct(env models.Envelope) (*structpb.Struct, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
