package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      *pb.IdentityClient

	mu    sync.Mutex
	token string
}

func withAuthorization(ctx context.Context, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, value)

	return metadata.NewOutgoingContext(ctx, md)
}

// bearerInterceptor presents the saved token unless the call already
// carries an authorization value.
func (s *GRPCClient) bearerInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	md, _ := metadata.FromOutgoingContext(ctx)
	if len(md.Get(common.AuthorizationHeaderName)) == 0 {
		if token := s.Token(); token != "" {
			ctx = withAuthorization(ctx, "Bearer "+token)
		}
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.bearerInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewIdentityClient(conn)
	return nil
}

func (s *GRPCClient) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *GRPCClient) Register(ctx context.Context, login string, password []byte) (User, error) {
	req, err := structpb.NewStruct(map[string]any{"login": login, "password": string(password)})
	if err != nil {
		return nil, err
	}
	return s.call(ctx, s.client.Create, req)
}

func (s *GRPCClient) Login(ctx context.Context, login string, password []byte) (User, error) {
	ctx = withAuthorization(ctx, basicAuthorization(login, password))
	return s.call(ctx, s.client.Read, nil)
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (User, error) {
	if s.Token() == "" {
		return nil, ErrNotLoggedIn
	}
	return s.call(ctx, s.client.Read, nil)
}

func (s *GRPCClient) Update(ctx context.Context, patch map[string]any) (User, error) {
	if s.Token() == "" {
		return nil, ErrNotLoggedIn
	}
	req, err := structpb.NewStruct(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return s.call(ctx, s.client.Update, req)
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

type method func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

// call runs one request and keeps the token from a successful response.
func (s *GRPCClient) call(ctx context.Context, m method, req *structpb.Struct) (User, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := m(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	env := resp.AsMap()
	if token, ok := env["jwt"].(string); ok && token != "" {
		s.SetToken(token)
	}
	u, _ := env["user"].(map[string]any)
	return User(u), nil
}

func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Internal:
		return fmt.Errorf("%w: %s", ErrRequestFailed, st.Message())
	default:
		return err
	}
}

func basicAuthorization(login string, password []byte) string {
	buf := make([]byte, 0, len(login)+1+len(password))
	buf = append(buf, login...)
	buf = append(buf, ':')
	buf = append(buf, password...)
	defer common.WipeByteArray(buf)
	return "Basic " + base64.StdEncoding.EncodeToString(buf)
}
