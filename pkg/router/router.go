package router

import (
	"context"
	"net/http"

	"github.com/rs/cors"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It can enrich the context or abort
// the request by returning an error.
type MiddlewareFunc func(ctx context.Context, r *http.Request) (context.Context, error)

type Router struct {
	mux         *http.ServeMux
	baseCtx     context.Context
	middlewares []MiddlewareFunc
}

// New creates a router whose handlers run with the given base context. The
// base context carries the configs, logger and database connection.
func New(ctx context.Context) *Router {
	return &Router{mux: http.NewServeMux(), baseCtx: ctx}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.middlewares = append(r.middlewares, middleware)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.Handle(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.Handle(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Handler() http.Handler {
	return cors.AllowAll().Handler(r.mux)
}
