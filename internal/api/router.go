// Package api implements the customer HTTP API independently of the
// hosting platform: one dispatch entry point, one function per operation,
// and a single response formatter.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/config"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/customer"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/errs"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/store"
)

const (
	pathRoot      = "/"
	pathCustomers = "/customers"
)

// allowed lists the methods each known path accepts, for the Allow header.
var allowed = map[string]string{
	pathRoot:      "GET,OPTIONS",
	pathCustomers: "GET,POST,OPTIONS",
}

// Store is the item store the operations need.
type Store interface {
	Put(ctx context.Context, c customer.Customer) error
	Scan(ctx context.Context, limit int) ([]customer.Customer, error)
}

// Handler routes requests to the operations. It holds no per-request state.
type Handler struct {
	store Store
	cfg   config.Config
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Handler)

// WithClock replaces the wall clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithIDGenerator replaces the customer id generator.
func WithIDGenerator(newID func() string) Option {
	return func(h *Handler) { h.newID = newID }
}

func NewHandler(s Store, cfg config.Config, log zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		store: s,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		newID: customer.NewID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle is the dispatch boundary. Every error raised below it is turned
// into a structured error response here; Handle itself never fails.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	method := strings.ToUpper(req.Method)
	path := normalizePath(req.Path)

	log := h.log.With().Str("request_id", req.RequestID).Str("method", method).Str("path", path).Logger()
	ctx = log.WithContext(ctx)

	resp, err := h.dispatch(ctx, method, path, req)
	if err != nil {
		e := errs.As(err)
		resp = errorResponse(e)
		if errs.IsKind(err, errs.KindMethodNotAllowed) {
			resp.Headers["Allow"] = allowed[path]
		}
		logFailure(log, e)
	}

	log.Info().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")
	return resp
}

func (h *Handler) dispatch(ctx context.Context, method, path string, req Request) (Response, error) {
	switch path {
	case pathRoot:
		switch method {
		case http.MethodOptions:
			return preflight(), nil
		case http.MethodGet:
			return h.rootPage()
		}
	case pathCustomers:
		switch method {
		case http.MethodOptions:
			return preflight(), nil
		case http.MethodGet:
			return h.listCustomers(ctx, req)
		case http.MethodPost:
			return h.createCustomer(ctx, req)
		}
	default:
		return Response{}, errs.NotFound(method, path)
	}
	return Response{}, errs.MethodNotAllowed(method, path)
}

// normalizePath drops trailing slashes so "/customers/" routes like
// "/customers". An empty path is the root.
func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return pathRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func logFailure(log zerolog.Logger, e *errs.Error) {
	ev := log.Warn()
	if e.Status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	if code := store.ErrorCode(e.Err); code != "" {
		ev = ev.Str("aws_error_code", code)
	}
	ev.Err(e.Err).
		Str("kind", string(e.Kind)).
		Str("field", e.Field).
		Msg(e.Message)
}
