// Package grpc exposes the dispatcher as the gophauth.v1.Identity gRPC
// service. Messages are google.protobuf.Struct values, so no generated code
// is needed.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Dispatcher runs one request to completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.Request) models.Response
}

type GRPCServer struct {
	address    string
	dispatcher Dispatcher
	logger     logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, d Dispatcher) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		dispatcher: d,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInterceptor))

	pb.RegisterIdentityServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		if errors.Is(err, grpc.ErrServerStopped) && ctx.Err() != nil {
			return nil
		}
		return err
	}

	return nil
}
