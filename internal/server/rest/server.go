// Package rest exposes the dispatcher over HTTP with fiber. Every method on
// any path is one request: PUT creates, POST updates, everything else reads.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

const (
	requestIDHeaderName = "X-Request-ID"
	shutdownTimeout     = 5 * time.Second
)

var errMalformedBody = errors.New("malformed request body")

// Dispatcher runs one request to completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.Request) models.Response
}

type HTTPServer struct {
	address    string
	dispatcher Dispatcher
	logger     logging.Logger
	app        *fiber.App
}

func NewHTTPServer(a string, l logging.Logger, d Dispatcher) *HTTPServer {
	s := &HTTPServer{
		address:    a,
		dispatcher: d,
		logger:     l.With("module", "http_server"),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "gophauth",
	})
	app.Use(recover.New())
	app.Use(s.requestID)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.All("/*", s.handle)

	s.app = app
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully. The
// listener is bound before serving starts, so a cancellation at any point
// stops the server.
func (s *HTTPServer) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, ln)
}

func (s *HTTPServer) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := s.app.ShutdownWithContext(shutdownCtx)

	// unblocks Listener if shutdown ran before serving began
	_ = ln.Close()

	if err := <-errCh; err != nil {
		return err
	}
	return shutdownErr
}

func (s *HTTPServer) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeaderName, id)
	c.Locals("request_id", id)

	start := time.Now()
	err := c.Next()
	s.logger.Info(c.UserContext(), "request finished",
		"request_id", id,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

func (s *HTTPServer) handle(c *fiber.Ctx) error {
	req := models.Request{
		Operation:     models.OperationFromMethod(c.Method()),
		Authorization: c.Get(fiber.HeaderAuthorization),
	}

	body, err := decodeBody(c.Body())
	if err != nil {
		return writeResponse(c, models.Response{
			Envelope: models.Envelope{Error: errMalformedBody.Error()},
			Status:   models.StatusFailure,
		})
	}
	req.Body = body

	return writeResponse(c, s.dispatcher.Dispatch(c.UserContext(), req))
}

// decodeBody accepts an empty body or exactly one JSON object.
func decodeBody(b []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errMalformedBody
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, errMalformedBody
	}
	return m, nil
}

func writeResponse(c *fiber.Ctx, resp models.Response) error {
	code := fiber.StatusOK
	if resp.Status != models.StatusOK {
		code = fiber.StatusInternalServerError
	}
	return c.Status(code).JSON(resp.Envelope)
}
