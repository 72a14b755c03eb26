package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeaderName = "x-request-id"

// requestInterceptor tags each call with a request id, logs its outcome and
// turns a handler panic into codes.Internal.
func (s *GRPCServer) requestInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {

	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDHeaderName); len(values) > 0 {
			requestID = values[0]
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeaderName, requestID))

	logger := s.logger.With("request_id", requestID, "method", info.FullMethod)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in handler", "panic", r)
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}
		logger.Info(ctx, "request finished", "code", status.Code(err).String(), "duration", time.Since(start))
	}()

	return handler(ctx, req)
}
